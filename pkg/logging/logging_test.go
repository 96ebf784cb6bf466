package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ember/pkg/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		cfg     config.Log
		debug   bool
		wantErr bool
	}{
		{config.Log{Level: "info"}, false, false},
		{config.Log{Level: "debug", Development: true}, true, false},
		{config.Log{Level: "warn"}, false, false},
		{config.Log{Level: "chatty"}, false, true},
	}
	for _, tt := range tests {
		logger, err := New(tt.cfg)
		if tt.wantErr {
			assert.Error(t, err, tt.cfg.Level)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.debug, logger.Core().Enabled(zap.DebugLevel), tt.cfg.Level)
	}
}

func TestMust_FallsBack(t *testing.T) {
	logger := Must(config.Log{Level: "nope"})
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
}
