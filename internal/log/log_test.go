package log

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigure_Level(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		Configure("info", "console")
		SetOutput(os.Stderr)
	})

	Configure("info", "json")
	Debug("hidden message")
	Info("planning stack", "stack", "demo")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "planning stack")
	assert.Contains(t, out, "demo")

	buf.Reset()
	Configure("debug", "json")
	Debug("stage finished", "stage", "Network")
	assert.Contains(t, buf.String(), "stage finished")
}
