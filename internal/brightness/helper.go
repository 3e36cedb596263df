package brightness

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"codeberg.org/mutker/batterypanel/internal/errors"
)

// Helper reads and writes the backlight level.
type Helper interface {
	MaxBrightness(ctx context.Context) (int, error)
	Brightness(ctx context.Context) (int, error)
	SetBrightness(ctx context.Context, level int) error
}

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	err := cmd.Run()
	return stdout.Bytes(), err
}

// ProcessHelper drives the privileged backlight helper program.
type ProcessHelper struct {
	path   string
	pkexec string
	run    Runner
}

// NewProcessHelper returns a helper invoking path. Writes are prefixed
// with pkexec unless it is empty.
func NewProcessHelper(path, pkexec string, run Runner) *ProcessHelper {
	if run == nil {
		run = ExecRunner
	}
	return &ProcessHelper{path: path, pkexec: pkexec, run: run}
}

func (h *ProcessHelper) MaxBrightness(ctx context.Context) (int, error) {
	return h.get(ctx, "get-max-brightness")
}

func (h *ProcessHelper) Brightness(ctx context.Context) (int, error) {
	return h.get(ctx, "get-brightness")
}

// SetBrightness blocks until the helper exits.
func (h *ProcessHelper) SetBrightness(ctx context.Context, level int) error {
	errFactory := errors.New()

	name, args := h.path, []string{"--set-brightness", strconv.Itoa(level)}
	if h.pkexec != "" {
		name, args = h.pkexec, append([]string{h.path}, args...)
	}

	if _, err := h.run(ctx, name, args...); err != nil {
		return errFactory.Wrap(ErrWriteFailed, err)
	}

	return nil
}

func (h *ProcessHelper) get(ctx context.Context, argument string) (int, error) {
	errFactory := errors.New()

	out, err := h.run(ctx, h.path, "--"+argument)
	if err != nil {
		return -1, errFactory.Wrap(ErrHelperFailed, err)
	}

	return ParseLevel(out)
}

// ParseLevel decodes helper output: N is 0, Y is 1, anything else is a
// decimal integer.
func ParseLevel(out []byte) (int, error) {
	s := strings.TrimSpace(string(out))
	if s == "" {
		return -1, errors.New().WithData(ErrHelperOutput, "empty output")
	}

	switch s[0] {
	case 'N':
		return 0, nil
	case 'Y':
		return 1, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return -1, errors.New().Wrap(ErrHelperOutput, err)
	}

	return v, nil
}
