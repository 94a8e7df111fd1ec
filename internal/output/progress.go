package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// ProgressBar reports relocation progress:
//
//	[==============>               ] 12/30  Moving files to vault  1.2 MB
//
// On a terminal the line is redrawn in place. Other writers get one line,
// written by Finish.
type ProgressBar struct {
	mu       sync.Mutex
	w        io.Writer
	label    string
	width    int
	done     int
	total    int
	bytes    int64
	finished bool
}

// NewProgress creates a progress bar for total entries writing to stderr.
func NewProgress(total int, label string) *ProgressBar {
	return &ProgressBar{
		w:     os.Stderr,
		label: label,
		width: 30,
		total: max(total, 0),
	}
}

// SetWriter sets the output writer (useful for testing).
func (p *ProgressBar) SetWriter(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.w = w
}

// Update records done of total entries and the bytes moved so far. total
// may be lower than the initial one when files vanished before the snapshot.
func (p *ProgressBar) Update(done, total int, bytes int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.total = max(total, 0)
	p.done = min(max(done, 0), p.total)
	p.bytes = bytes

	if writerIsTTY(p.w) {
		fmt.Fprintf(p.w, "\r%s", p.line())
	}
}

// Finish writes the final state once. An interrupted run keeps its count.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.finished = true

	if writerIsTTY(p.w) {
		fmt.Fprintf(p.w, "\r%s\n", p.line())
		return
	}
	fmt.Fprintln(p.w, p.line())
}

// line must be called with the lock held.
func (p *ProgressBar) line() string {
	filled := p.width
	if p.total > 0 {
		filled = p.done * p.width / p.total
	}
	bar := strings.Repeat("=", filled)
	if filled > 0 && filled < p.width {
		bar = bar[:filled-1] + ">"
	}

	digits := len(strconv.Itoa(p.total))
	return fmt.Sprintf("[%-*s] %*d/%d  %s  %s", p.width, bar, digits, p.done, p.total, p.label, FormatSize(p.bytes))
}

var spinFrames = []string{"|", "/", "-", "\\"}

// Spinner shows a message, an optional count and the elapsed time while a
// scan or a hashing batch runs. On a non-terminal writer the message is
// printed once and no goroutine is started.
type Spinner struct {
	mu      sync.Mutex
	w       io.Writer
	message string
	count   int
	start   time.Time
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewSpinner creates a new spinner writing to stderr.
func NewSpinner(message string) *Spinner {
	return &Spinner{w: os.Stderr, message: message}
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

// Start begins the animation. Starting a running spinner does nothing.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.start = time.Now()

	if !writerIsTTY(s.w) {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.spin(s.stop)
}

func (s *Spinner) spin(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		s.mu.Lock()
		fmt.Fprintf(s.w, "\r\033[K%s %s", spinFrames[frame%len(spinFrames)], s.status())
		s.mu.Unlock()
	}
}

// status must be called with the lock held.
func (s *Spinner) status() string {
	text := s.message
	if s.count > 0 {
		text += fmt.Sprintf(" %d files", s.count)
	}
	return fmt.Sprintf("%s (%ds)", text, int(time.Since(s.start).Seconds()))
}

// UpdateMessage replaces the message while the spinner runs.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// SetCount shows n next to the message, e.g. the files scanned so far.
func (s *Spinner) SetCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = n
}

// Stop ends the animation and clears the line. It is safe to call twice.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	// spin takes the lock on every frame, so wait for it unlocked.
	if stop != nil {
		close(stop)
		s.wg.Wait()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if writerIsTTY(s.w) {
		fmt.Fprint(s.w, "\r\033[K")
	}
}

// StopWithMessage stops the spinner and prints message on its own line.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, message)
}
