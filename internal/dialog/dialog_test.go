package dialog

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTerminal_AcceptVariants(t *testing.T) {
	for _, input := range []string{"y\n", "Y\n", "yes\n", "  YES  \n"} {
		var out bytes.Buffer
		d := NewTerminal(strings.NewReader(input), &out, zap.NewNop())

		assert.True(t, d.Confirm(context.Background(), "Reload?"), "input %q", input)
		assert.Contains(t, out.String(), "Reload? [y/N]:")
	}
}

func TestTerminal_DeclineVariants(t *testing.T) {
	for _, input := range []string{"n\n", "N\n", "no\n", "\n"} {
		var out bytes.Buffer
		d := NewTerminal(strings.NewReader(input), &out, zap.NewNop())

		assert.False(t, d.Confirm(context.Background(), "Reload?"), "input %q", input)
	}
}

// TestTerminal_ReasksOnUnrecognizedInput verifies invalid answers
// re-prompt until a recognized one arrives.
func TestTerminal_ReasksOnUnrecognizedInput(t *testing.T) {
	var out bytes.Buffer
	d := NewTerminal(strings.NewReader("what\nmaybe\ny\n"), &out, zap.NewNop())

	assert.True(t, d.Confirm(context.Background(), "Reload?"))
	assert.Equal(t, 3, strings.Count(out.String(), "[y/N]:"))
}

// TestTerminal_ReadErrorDeclines verifies EOF counts as a decline.
func TestTerminal_ReadErrorDeclines(t *testing.T) {
	var out bytes.Buffer
	d := NewTerminal(strings.NewReader(""), &out, zap.NewNop())

	assert.False(t, d.Confirm(context.Background(), "Reload?"))
}

// TestTerminal_CancelledContextDeclines verifies cancellation short-
// circuits the prompt loop.
func TestTerminal_CancelledContextDeclines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	d := NewTerminal(strings.NewReader("y\n"), &out, zap.NewNop())

	assert.False(t, d.Confirm(ctx, "Reload?"))
	assert.Empty(t, out.String(), "no prompt after cancellation")
}

func TestHeadless_ReturnsConfiguredAnswer(t *testing.T) {
	assert.False(t, NewHeadless(false, zap.NewNop()).Confirm(context.Background(), "Reload?"))
	assert.True(t, NewHeadless(true, zap.NewNop()).Confirm(context.Background(), "Reload?"))
}
