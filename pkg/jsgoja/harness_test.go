package jsgoja

import (
	"testing"

	"github.com/dop251/goja"

	"ember/pkg/html"
)

// harnessShim is a small testharness.js stand-in: test() records a result
// in __results and the assert_* helpers throw on mismatch.
const harnessShim = `
var __results = [];
function assert_equals(actual, expected, msg) {
	if (actual !== expected) {
		throw new Error((msg || "assert_equals") + ": expected " + expected + ", got " + actual);
	}
}
function assert_true(v, msg) { assert_equals(v, true, msg); }
function test(fn, name) {
	try {
		fn();
		__results.push({name: name, status: "PASS", message: ""});
	} catch (e) {
		__results.push({name: name, status: "FAIL", message: String(e)});
	}
}
`

var harnessDocs = map[string]string{
	"node-properties": `<div id="t" class="x"><span>child</span></div>
<script>
test(function () {
	var t = document.getElementById("t");
	assert_equals(t.nodeType, 1);
	assert_equals(t.nodeName, "DIV");
	assert_equals(t.className, "x");
	assert_equals(t.firstChild.firstChild.nodeType, 3);
}, "element and text node properties");
test(function () {
	var t = document.getElementById("t");
	t.id = "renamed";
	assert_equals(document.getElementById("t"), null);
	assert_true(document.getElementById("renamed") === t);
}, "id writes are visible to lookups");
</script>`,
	"mutation": `<ol id="o"></ol>
<script>
test(function () {
	var o = document.getElementById("o");
	for (var i = 0; i < 3; i++) {
		var li = document.createElement("li");
		li.textContent = "item " + i;
		o.appendChild(li);
	}
	assert_equals(o.childCount, 3);
	assert_equals(o.lastChild.textContent, "item 2");
	o.firstChild.remove();
	assert_equals(o.firstChild.textContent, "item 1");
}, "append and remove children");
test(function () {
	var o = document.getElementById("o");
	var threw = false;
	try { o.appendChild(document.body); } catch (e) { threw = true; }
	assert_true(threw, "cycles are rejected");
}, "hierarchy errors throw");
</script>`,
}

func TestHarness(t *testing.T) {
	for name, markup := range harnessDocs {
		t.Run(name, func(t *testing.T) {
			runHarnessDoc(t, markup)
		})
	}
}

func runHarnessDoc(t *testing.T, markup string) {
	t.Helper()
	e := New()
	if err := e.Execute(nil, harnessShim); err != nil {
		t.Fatalf("failed to run harness shim: %v", err)
	}
	p := html.NewParser([]byte(markup))
	p.SetScriptHost(e)
	p.Parse()
	for _, r := range p.ScriptReports() {
		t.Fatalf("script failed: %v", r.Err)
	}

	results := e.vm.Get("__results")
	if results == nil || goja.IsUndefined(results) {
		t.Fatal("no __results found")
	}
	var items []map[string]any
	if err := e.vm.ExportTo(results, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) == 0 {
		t.Fatal("no tests ran")
	}
	for _, item := range items {
		if item["status"] != "PASS" {
			t.Errorf("FAIL: %v: %v", item["name"], item["message"])
		}
	}
}
