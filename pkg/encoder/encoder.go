package encoder

import (
	"context"
	console_parser "filtergraph-box/pkg/encoder/console-parser"
	"fmt"
	"os/exec"
	"strings"
)

type Encoder struct {
	// FFmpeg executable
	path string
	// FFmpeg arguments, the filter graph being a single argument
	args []string
	// Removes the temp files the command relies on
	cleanup func()
	// Channel to send progress into
	PChan chan *console_parser.EncodingProgress
	// Channel to send errors into
	EChan chan error
	// Encoder context
	Ctx context.Context
	// Function to execute to Cancel the encoding process
	Cancel context.CancelFunc
}

// NewEncoder Build a new FFMpeg encoder running path with args
func NewEncoder(ctx context.Context, path string, args []string) *Encoder {
	eCtx, cancel := context.WithCancel(ctx)
	return &Encoder{
		path:    path,
		args:    args,
		cleanup: func() {},
		PChan:   make(chan *console_parser.EncodingProgress),
		EChan:   make(chan error),
		Ctx:     eCtx,
		Cancel:  cancel,
	}
}

// Start Run ffmpeg until it exits or the context is cancelled. Progress and errors are sent in PChan and EChan,
// the encoder context is cancelled once done
func (e *Encoder) Start() {
	defer e.Cancel()
	defer e.cleanup()
	cmd := exec.CommandContext(e.Ctx, e.path, e.args...)

	// FFMpeg pipe output in stderr for some reason
	stderr, err := cmd.StderrPipe()
	if err != nil {
		e.fail(err)
		return
	}

	if err = cmd.Start(); err != nil {
		e.fail(err)
		return
	}
	lastLines := console_parser.ParseOutput(e.Ctx, stderr, e.PChan, e.EChan)
	if err = cmd.Wait(); err != nil {
		e.fail(fmt.Errorf("%w : %s", err, lastLines))
	}
}

// fail Report an error, unless nobody listens anymore
func (e *Encoder) fail(err error) {
	select {
	case e.EChan <- err:
	case <-e.Ctx.Done():
	}
}

// GetCommandLine Command line equivalent to the encoder, for logging purposes
func (e *Encoder) GetCommandLine() string {
	quoted := make([]string, 0, len(e.args)+1)
	quoted = append(quoted, e.path)
	for _, a := range e.args {
		if strings.ContainsAny(a, " ;[]'\"") {
			a = fmt.Sprintf("%q", a)
		}
		quoted = append(quoted, a)
	}
	return strings.Join(quoted, " ")
}

// Args A copy of the ffmpeg arguments
func (e *Encoder) Args() []string {
	return append([]string(nil), e.args...)
}
