package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		wantDebug bool
	}{
		{name: "default level is info", level: "", wantDebug: false},
		{name: "debug level", level: "debug", wantDebug: true},
		{name: "warn level", level: "warn", wantDebug: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(Options{Level: tt.level, Output: &buf})
			require.NoError(t, err)

			logger.Debugw("Folded module", "module", "gastro")
			require.NoError(t, logger.Sync())
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("Folded module")))
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{JSON: true, Output: &buf})
	require.NoError(t, err)

	logger.Infow("Wrote export file", "kind", "finding", "rows", 3)
	require.NoError(t, logger.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "Wrote export file", line["msg"])
	assert.Equal(t, "finding", line["kind"])
	assert.Equal(t, float64(3), line["rows"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "verbose"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownLevel))
}
