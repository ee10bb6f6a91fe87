package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/labelsheet/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner shows how many labels of a run have been rendered. It redraws
// on stderr until stopped or until its context is cancelled.
type Spinner struct {
	total int
	done  atomic.Int64

	ctx     context.Context
	cancel  context.CancelFunc
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once

	out   io.Writer
	mu    sync.Mutex
	width int
}

// newSpinner creates a spinner for a run of total labels.
func newSpinner(ctx context.Context, total int) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		total:   total,
		ctx:     ctx,
		cancel:  cancel,
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		out:     os.Stderr,
	}
}

// Advance records one finished label.
func (s *Spinner) Advance() { s.done.Add(1) }

// Done returns the number of finished labels.
func (s *Spinner) Done() int { return int(s.done.Load()) }

func (s *Spinner) message() string {
	return fmt.Sprintf("Rendering labels %d/%d", s.Done(), s.total)
}

// Start begins drawing.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.quit:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	msg := s.message()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(msg))
	s.width = max(s.width, len(msg)+2)
}

// Stop stops drawing and clears the line. It may be called more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		close(s.quit)
		<-s.stopped
		s.clearLine()
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.width))
	s.width = 0
}

// Cancelled reports whether the spinner's context has ended.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// progressHooks forwards pipeline events and advances a spinner for every
// finished label.
type progressHooks struct {
	observability.PipelineHooks
	spinner *Spinner
}

func (h progressHooks) OnLabelComplete(ctx context.Context, index int, d time.Duration, err error) {
	h.PipelineHooks.OnLabelComplete(ctx, index, d, err)
	h.spinner.Advance()
}

// trackProgress installs hooks that drive s and returns a function that
// restores the previous hooks.
func trackProgress(s *Spinner) (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(progressHooks{PipelineHooks: prev, spinner: s})
	return func() { observability.SetPipelineHooks(prev) }
}
