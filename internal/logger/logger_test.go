package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"":         logrus.InfoLevel,
		"trace":    logrus.TraceLevel,
		" DEBUG ":  logrus.DebugLevel,
		"warning":  logrus.WarnLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"verbose?": logrus.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewTagsService(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "")

	l := New("floorscreen")
	var buf bytes.Buffer
	l.SetOutput(&buf)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.WithField("session_id", "s-1").Debug("turn")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "floorscreen", line["service"])
	assert.Equal(t, "s-1", line["session_id"])
	assert.Equal(t, "turn", line["msg"])
}

func TestNewTextFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "text")

	l := New("")
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}
