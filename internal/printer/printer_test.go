package printer

import (
	"bytes"
	"testing"

	"github.com/dyluth/canboard/internal/notify"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(t *testing.T) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var out, errOut bytes.Buffer
	return New(&out, &errOut), &out, &errOut
}

func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		p, _, errOut := newTestPrinter(t)
		err := p.Error("Test Error", "This is a test error", []string{})
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Equal(t, "Test Error\n\nThis is a test error\n", errOut.String())
	})

	t.Run("prints a single suggestion verbatim", func(t *testing.T) {
		p, _, errOut := newTestPrinter(t)
		err := p.Error("Test Error", "Explanation", []string{"Try this fix"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "\nTry this fix\n")
		assert.NotContains(t, errOut.String(), "Either:")
	})

	t.Run("numbers multiple suggestions", func(t *testing.T) {
		p, _, errOut := newTestPrinter(t)
		err := p.Error("Test Error", "Explanation", []string{
			"First option",
			"Second option",
		})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestErrorWithContext(t *testing.T) {
	p, out, errOut := newTestPrinter(t)
	details := map[string]string{
		"Redis":    "redis://localhost:6379",
		"Instance": "bench",
	}
	err := p.ErrorWithContext("Cannot connect", "", details, nil)
	require.Equal(t, "Cannot connect", err.Error())

	assert.Equal(t, "Cannot connect\n\n\n  Instance: bench\n  Redis: redis://localhost:6379\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestNotify(t *testing.T) {
	p, out, errOut := newTestPrinter(t)

	var n notify.Notifier = p
	notify.OperationFailed(n)
	n.Notify(notify.KindInfo, "Saved", "Network saved")

	assert.Equal(t, "✗ Error: Operation failed\nℹ Saved: Network saved\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestOutputHelpers(t *testing.T) {
	p, out, errOut := newTestPrinter(t)

	p.Success("renamed %s\n", "b1")
	p.Success("✓ done\n")
	p.Step("loading\n")
	p.Info("plain %d\n", 1)
	p.Warning("careful\n")

	assert.Equal(t, "✓ renamed b1\n✓ done\n→ loading\nplain 1\n", out.String())
	assert.Equal(t, "⚠️  careful\n", errOut.String())
}
