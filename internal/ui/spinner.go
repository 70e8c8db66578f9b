package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// Spinner animates a single status line while a one-shot command waits on
// the node. The sale screen uses the bubbles spinner model directly; this
// drives the same frames without a Bubble Tea program.
type Spinner struct {
	out    io.Writer
	frames spinner.Spinner
	msg    string
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, msg string) *Spinner {
	return &Spinner{
		out:    out,
		frames: spinner.Dot,
		msg:    msg,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins the animation in a goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.done)
		tick := time.NewTicker(s.frames.FPS)
		defer tick.Stop()
		for i := 0; ; i++ {
			frame := StyleChain.Render(s.frames.Frames[i%len(s.frames.Frames)])
			fmt.Fprintf(s.out, "\r%s  %s", frame, s.msg)
			select {
			case <-s.stop:
				fmt.Fprintf(s.out, "\r%-60s\r", "")
				return
			case <-tick.C:
			}
		}
	}()
}

// Stop halts the spinner and waits for the line to be cleared. It is safe to
// call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// StopWithMsg halts the spinner and prints a final line.
func (s *Spinner) StopWithMsg(msg string) {
	s.Stop()
	fmt.Fprintln(s.out, msg)
}
