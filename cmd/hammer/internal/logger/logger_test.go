package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOutputLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, false)

	Debug("hidden")
	Info("shown", "session", 3)
	Warn("careful")
	With("session", 7).Error("failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=INFO msg=shown session=3")
	assert.Contains(t, out, "level=WARN msg=careful")
	assert.Contains(t, out, "level=ERROR msg=failed session=7")
}

func TestSetOutputDebug(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, true)

	Debug("visible")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "source=")
}
