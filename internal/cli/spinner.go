package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner animates a one-line status on w while a stage runs. It erases
// itself when stopped or when its context ends.
type Spinner struct {
	w    io.Writer
	stop context.CancelFunc

	mu      sync.Mutex
	message string
	width   int // widest line drawn, for erasing

	once     sync.Once
	finished chan struct{}
}

// startSpinner draws message on w until Stop is called or ctx is done.
func startSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	ctx, cancel := context.WithCancel(ctx)
	s := &Spinner{
		w:        w,
		stop:     cancel,
		message:  message,
		finished: make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Spinner) run(ctx context.Context) {
	defer close(s.finished)
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			s.erase()
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

// SetMessage replaces the text shown next to the animation.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(s.width, len(s.message)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
}

func (s *Spinner) erase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Stop halts the animation and waits until the line is erased. It is safe to
// call more than once.
func (s *Spinner) Stop() {
	s.once.Do(s.stop)
	<-s.finished
}

// Fail stops the spinner and prints message as an error.
func (s *Spinner) Fail(message string) {
	s.Stop()
	printError("%s", message)
}
