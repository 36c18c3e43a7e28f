// Package dialog provides the confirmation-prompt capability with two
// implementations: an interactive terminal prompt and a headless
// fallback, selected by runtime capability probing.
package dialog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/staleguard/staleguard/internal/domain"
)

// Detect returns the richest dialog the runtime supports: the terminal
// prompt when stdin is a TTY, otherwise the headless fallback (which
// declines by default, so an unattended session never reloads itself).
func Detect(logger *zap.Logger) domain.Dialog {
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return NewTerminal(os.Stdin, os.Stderr, logger)
	}
	return NewHeadless(false, logger)
}

// Terminal is an interactive y/N prompt on the controlling terminal.
// It re-asks on unrecognized input and treats a bare newline as "no".
type Terminal struct {
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
}

// NewTerminal creates a terminal dialog reading from in and prompting
// on out.
func NewTerminal(in io.Reader, out io.Writer, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Terminal{
		in:     bufio.NewReader(in),
		out:    out,
		logger: logger,
	}
}

// Confirm blocks until the user answers y or n. A read error or context
// cancellation counts as a decline.
func (t *Terminal) Confirm(ctx context.Context, message string) bool {
	for {
		if ctx.Err() != nil {
			return false
		}

		fmt.Fprintf(t.out, "%s [y/N]: ", message)

		line, err := t.in.ReadString('\n')
		if err != nil {
			t.logger.Warn("prompt read failed, treating as decline", zap.Error(err))
			return false
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no", "":
			return false
		}
		// Unrecognized input: ask again.
	}
}

// Headless answers every confirmation with a fixed default. It stands in
// when no terminal is available.
type Headless struct {
	answer bool
	logger *zap.Logger
}

// NewHeadless creates a headless dialog returning answer for every
// confirmation.
func NewHeadless(answer bool, logger *zap.Logger) *Headless {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Headless{answer: answer, logger: logger}
}

// Confirm logs the prompt and returns the configured answer.
func (h *Headless) Confirm(_ context.Context, message string) bool {
	h.logger.Info("headless confirmation",
		zap.String("message", message),
		zap.Bool("answer", h.answer))
	return h.answer
}
