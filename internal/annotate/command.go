package annotate

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ppiankov/reltext/internal/model"
)

// CommandAnnotator runs an external program once per document.
// The program reads the text on stdin and writes CoNLL-U to stdout.
type CommandAnnotator struct {
	command string
	args    []string
	timeout time.Duration
}

// NewCommandAnnotator creates a command-backed annotator
func NewCommandAnnotator(command string, args []string, timeout time.Duration) *CommandAnnotator {
	return &CommandAnnotator{
		command: command,
		args:    args,
		timeout: timeout,
	}
}

// Name returns the backend name including the program
func (a *CommandAnnotator) Name() string {
	return "command:" + strings.Join(append([]string{a.command}, a.args...), " ")
}

// Annotate runs the program and decodes its CoNLL-U output
func (a *CommandAnnotator) Annotate(ctx context.Context, src model.Source) (*model.Document, error) {
	if err := checkText(src); err != nil {
		return nil, err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.command, a.args...)
	cmd.Stdin = strings.NewReader(src.Text)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 512 {
			msg = msg[:512]
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrUnavailable, a.command, err, msg)
	}

	doc, err := DecodeCoNLLU(&stdout, src.Text)
	if err != nil {
		return nil, err
	}
	doc.Path = src.Path
	return doc, nil
}
