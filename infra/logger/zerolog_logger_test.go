package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestNewWithWriter_ComponentField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("dispatcher", &buf)
	l.Infof("vehicle at %s", "(1,2)")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "dispatcher", line["component"])
	assert.Equal(t, "vehicle at (1,2)", line["message"])
	assert.Equal(t, "info", line["level"])
}

func TestSetLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	require.NoError(t, SetLevel("warn"))
	var buf bytes.Buffer
	l := NewWithWriter("test", &buf)
	l.Infof("hidden")
	assert.Zero(t, buf.Len())
	l.Warnf("shown")
	assert.NotZero(t, buf.Len())

	assert.NoError(t, SetLevel(""))
	assert.Error(t, SetLevel("loud"))
}
