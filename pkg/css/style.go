package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Property enumerates the properties the resolver computes.
type Property int

const (
	PropDisplay Property = iota
	PropColor
	PropBackgroundColor
	PropWidth
	PropHeight
	PropMarginTop
	PropMarginRight
	PropMarginBottom
	PropMarginLeft
	PropPaddingTop
	PropPaddingRight
	PropPaddingBottom
	PropPaddingLeft
	PropFontSize
	PropFontWeight
	PropTextDecoration
	PropWhiteSpace
	NumProperties
)

var propertyNames = [NumProperties]string{
	"display", "color", "background-color", "width", "height",
	"margin-top", "margin-right", "margin-bottom", "margin-left",
	"padding-top", "padding-right", "padding-bottom", "padding-left",
	"font-size", "font-weight", "text-decoration", "white-space",
}

var initialValues = [NumProperties]string{
	PropDisplay:         "inline",
	PropColor:           "black",
	PropBackgroundColor: "transparent",
	PropWidth:           "auto",
	PropHeight:          "auto",
	PropMarginTop:       "0px",
	PropMarginRight:     "0px",
	PropMarginBottom:    "0px",
	PropMarginLeft:      "0px",
	PropPaddingTop:      "0px",
	PropPaddingRight:    "0px",
	PropPaddingBottom:   "0px",
	PropPaddingLeft:     "0px",
	PropFontSize:        "16px",
	PropFontWeight:      "normal",
	PropTextDecoration:  "none",
	PropWhiteSpace:      "normal",
}

var propertyByName = func() map[string]Property {
	m := make(map[string]Property, NumProperties)
	for i, name := range propertyNames {
		m[name] = Property(i)
	}
	return m
}()

func (p Property) String() string {
	if p < 0 || p >= NumProperties {
		return fmt.Sprintf("Property(%d)", int(p))
	}
	return propertyNames[p]
}

// Inherited reports whether an unset value is taken from the parent.
func (p Property) Inherited() bool {
	switch p {
	case PropColor, PropFontSize, PropFontWeight, PropTextDecoration, PropWhiteSpace:
		return true
	}
	return false
}

// Initial returns the value used when nothing sets or inherits p.
func (p Property) Initial() string { return initialValues[p] }

// LookupProperty maps a property name to its enumerator.
func LookupProperty(name string) (Property, bool) {
	p, ok := propertyByName[strings.ToLower(name)]
	return p, ok
}

// ComputedStyle holds one computed value per property. Values are
// normalized text: lengths other than percentages are in px, keywords are
// lower case. Two styles computed from the same input compare equal with ==.
type ComputedStyle struct {
	values [NumProperties]string
}

// InitialStyle returns a style with every property at its initial value.
func InitialStyle() *ComputedStyle {
	return &ComputedStyle{values: initialValues}
}

func (s *ComputedStyle) Get(p Property) string { return s.values[p] }

func (s *ComputedStyle) Set(p Property, v string) { s.values[p] = v }

// Display returns the display keyword. Unknown values act like inline.
func (s *ComputedStyle) Display() string { return s.values[PropDisplay] }

// IsBlock reports whether the element generates a block box.
func (s *ComputedStyle) IsBlock() bool {
	switch s.values[PropDisplay] {
	case "block", "list-item", "table", "flex", "grid":
		return true
	}
	return false
}

func (s *ComputedStyle) IsNone() bool { return s.values[PropDisplay] == "none" }

func (s *ComputedStyle) Color() Color {
	if c, ok := ParseColor(s.values[PropColor]); ok {
		return c
	}
	return Color{0, 0, 0, 255}
}

// BackgroundColor returns the background and false when it is transparent.
func (s *ComputedStyle) BackgroundColor() (Color, bool) {
	c, ok := ParseColor(s.values[PropBackgroundColor])
	if !ok || c.A == 0 {
		return Color{}, false
	}
	return c, true
}

// FontSize returns the font-size in pixels (default: 16px)
func (s *ComputedStyle) FontSize() float64 {
	if size, ok := ParseLength(s.values[PropFontSize]); ok {
		return size
	}
	return 16.0
}

func (s *ComputedStyle) Bold() bool {
	switch w := s.values[PropFontWeight]; w {
	case "bold", "bolder":
		return true
	default:
		n, err := strconv.Atoi(w)
		return err == nil && n >= 600
	}
}

func (s *ComputedStyle) Underline() bool {
	return strings.Contains(s.values[PropTextDecoration], "underline")
}

// PreserveWhitespace reports whether white-space keeps spaces and newlines.
func (s *ComputedStyle) PreserveWhitespace() bool {
	switch s.values[PropWhiteSpace] {
	case "pre", "pre-wrap", "break-spaces":
		return true
	}
	return false
}

// BoxEdge represents the four sides of a box (top, right, bottom, left)
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (e BoxEdge) Horizontal() float64 { return e.Left + e.Right }
func (e BoxEdge) Vertical() float64   { return e.Top + e.Bottom }

// Margin returns the margins, resolving percentages against the width of the
// containing block. auto margins are zero.
func (s *ComputedStyle) Margin(containing float64) BoxEdge {
	return s.edge(PropMarginTop, containing)
}

// Padding returns the paddings, resolving percentages against the width of
// the containing block.
func (s *ComputedStyle) Padding(containing float64) BoxEdge {
	return s.edge(PropPaddingTop, containing)
}

func (s *ComputedStyle) edge(first Property, containing float64) BoxEdge {
	get := func(p Property) float64 {
		v, _ := ResolveLength(s.values[p], s.FontSize(), containing)
		return v
	}
	return BoxEdge{
		Top:    get(first),
		Right:  get(first + 1),
		Bottom: get(first + 2),
		Left:   get(first + 3),
	}
}

// Width returns the specified content width, or false for auto.
func (s *ComputedStyle) Width(containing float64) (float64, bool) {
	return ResolveLength(s.values[PropWidth], s.FontSize(), containing)
}

// Height returns the specified content height, or false for auto.
// Percent heights are treated as auto.
func (s *ComputedStyle) Height() (float64, bool) {
	v := s.values[PropHeight]
	if strings.HasSuffix(v, "%") {
		return 0, false
	}
	return ResolveLength(v, s.FontSize(), 0)
}

// ParseLength parses a length value (e.g., "100px" or "100")
func ParseLength(val string) (float64, bool) {
	val = strings.TrimSpace(val)
	val = strings.TrimSuffix(val, "px")
	return parseNumber(val)
}

// parseNumber accepts a CSS number: optional sign, digits with an optional
// fraction, optional exponent. Words like inf and nan, hex floats and
// results that overflow to infinity are rejected.
func parseNumber(s string) (float64, bool) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		frac := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			frac++
		}
		if frac == 0 {
			return 0, false
		}
		digits += frac
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return 0, false
		}
	}
	if i != len(s) {
		return 0, false
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(num, 0) || math.IsNaN(num) {
		return 0, false
	}
	return num, true
}

// ResolveLength converts px, em, rem, pt and % lengths to pixels. Percentages
// are relative to percentBase, em to fontSize. auto and anything unparsable
// report false.
func ResolveLength(val string, fontSize, percentBase float64) (float64, bool) {
	val = strings.ToLower(strings.TrimSpace(val))
	if val == "" || val == "auto" {
		return 0, false
	}
	units := []struct {
		suffix string
		scale  float64
	}{
		{"px", 1},
		{"rem", 16},
		{"em", fontSize},
		{"pt", 4.0 / 3.0},
		{"%", percentBase / 100},
	}
	for _, u := range units {
		if strings.HasSuffix(val, u.suffix) {
			num, ok := parseNumber(strings.TrimSuffix(val, u.suffix))
			if !ok {
				return 0, false
			}
			px := num * u.scale
			if math.IsInf(px, 0) || math.IsNaN(px) {
				return 0, false
			}
			return px, true
		}
	}
	return parseNumber(val)
}

// fontSizeKeywords maps absolute and relative size keywords to pixels or
// factors of the parent size.
var fontSizeKeywords = map[string]float64{
	"xx-small": 9,
	"x-small":  10,
	"small":    13,
	"medium":   16,
	"large":    18,
	"x-large":  24,
	"xx-large": 32,
}

// resolveFontSize computes a font-size against the parent's size.
func resolveFontSize(val string, parent float64) float64 {
	val = strings.ToLower(strings.TrimSpace(val))
	if px, ok := fontSizeKeywords[val]; ok {
		return px
	}
	switch val {
	case "larger":
		return parent * 1.2
	case "smaller":
		return parent / 1.2
	}
	if px, ok := ResolveLength(val, parent, parent); ok && px >= 0 {
		return px
	}
	return parent
}

func formatPx(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

type Color struct {
	R, G, B, A uint8
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %d)", c.R, c.G, c.B, c.A)
}

var namedColors = map[string]Color{
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"cyan":        {0, 255, 255, 255},
	"aqua":        {0, 255, 255, 255},
	"magenta":     {255, 0, 255, 255},
	"fuchsia":     {255, 0, 255, 255},
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"lightgray":   {211, 211, 211, 255},
	"darkgray":    {169, 169, 169, 255},
	"orange":      {255, 165, 0, 255},
	"purple":      {128, 0, 128, 255},
	"pink":        {255, 192, 203, 255},
	"brown":       {165, 42, 42, 255},
	"lime":        {0, 255, 0, 255},
	"navy":        {0, 0, 128, 255},
	"teal":        {0, 128, 128, 255},
	"silver":      {192, 192, 192, 255},
	"maroon":      {128, 0, 0, 255},
	"olive":       {128, 128, 0, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses named colors, #rgb, #rrggbb and rgb()/rgba().
func ParseColor(colorStr string) (Color, bool) {
	colorStr = strings.ToLower(strings.TrimSpace(colorStr))
	if c, ok := namedColors[colorStr]; ok {
		return c, true
	}
	if strings.HasPrefix(colorStr, "#") {
		return parseHexColor(colorStr[1:])
	}
	for _, fn := range []string{"rgb(", "rgba("} {
		if strings.HasPrefix(colorStr, fn) && strings.HasSuffix(colorStr, ")") {
			return parseRGBColor(colorStr[len(fn) : len(colorStr)-1])
		}
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, true
}

func parseRGBColor(args string) (Color, bool) {
	parts := strings.FieldsFunc(args, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, false
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		p := parts[i]
		v, ok := parseNumber(strings.TrimSuffix(p, "%"))
		if !ok {
			return Color{}, false
		}
		if strings.HasSuffix(p, "%") {
			v = v * 255 / 100
		}
		ch[i] = clampByte(v)
	}
	alpha := uint8(255)
	if len(parts) == 4 {
		a, ok := parseNumber(strings.TrimSuffix(parts[3], "%"))
		if !ok {
			return Color{}, false
		}
		if strings.HasSuffix(parts[3], "%") {
			a /= 100
		}
		alpha = clampByte(a * 255)
	}
	return Color{ch[0], ch[1], ch[2], alpha}, true
}

func clampByte(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v + 0.5)
}
