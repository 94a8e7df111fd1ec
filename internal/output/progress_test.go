package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressBar_NonTTYWritesOnlyOnFinish(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(4, "Moving files")
	p.SetWriter(buf)

	p.Update(1, 4, 100)
	p.Update(2, 4, 2048)
	if buf.Len() != 0 {
		t.Errorf("non-TTY progress should stay silent before Finish, got: %q", buf.String())
	}

	p.Update(4, 4, 4096)
	p.Finish()
	output := buf.String()

	if !strings.HasPrefix(output, "[") || !strings.Contains(output, "]") {
		t.Errorf("progress bar should contain brackets, got: %q", output)
	}
	if !strings.Contains(output, "4/4") {
		t.Errorf("expected 4/4, got: %q", output)
	}
	if !strings.Contains(output, "Moving files") {
		t.Errorf("progress bar should contain its label, got: %q", output)
	}
	if !strings.Contains(output, "4 KB") {
		t.Errorf("progress bar should contain moved bytes, got: %q", output)
	}
}

func TestProgressBar_FinishOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(2, "Moving")
	p.SetWriter(buf)

	p.Update(2, 2, 10)
	p.Finish()
	p.Finish()
	p.Update(1, 2, 5)

	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("expected exactly one line, got %d: %q", n, buf.String())
	}
}

func TestProgressBar_InterruptedKeepsCount(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(10, "Moving")
	p.SetWriter(buf)

	p.Update(3, 10, 0)
	p.Finish()

	if !strings.Contains(buf.String(), " 3/10") {
		t.Errorf("interrupted bar should show the real count, got: %q", buf.String())
	}
}

func TestProgressBar_TotalShrinksAndClamps(t *testing.T) {
	p := NewProgress(10, "x")
	p.SetWriter(&bytes.Buffer{})

	p.Update(12, 8, 0)
	if p.total != 8 || p.done != 8 {
		t.Errorf("done/total = %d/%d, want 8/8", p.done, p.total)
	}

	p.Update(-1, -5, 0)
	if p.total != 0 || p.done != 0 {
		t.Errorf("done/total = %d/%d, want 0/0", p.done, p.total)
	}
}

func TestProgressBar_Line(t *testing.T) {
	p := NewProgress(4, "Moving")
	p.width = 8

	tests := []struct {
		done int
		want string
	}{
		{0, "[        ] 0/4"},
		{1, "[=>      ] 1/4"},
		{2, "[===>    ] 2/4"},
		{4, "[========] 4/4"},
	}
	for _, tt := range tests {
		p.done = tt.done
		if got := p.line(); !strings.HasPrefix(got, tt.want) {
			t.Errorf("line() with done=%d = %q, want prefix %q", tt.done, got, tt.want)
		}
	}
}

func TestSpinner_NonTTY(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Scanning")
	s.SetWriter(buf)

	s.Start()
	s.Start() // second start is a no-op
	s.UpdateMessage("Hashing")
	s.SetCount(42)
	s.StopWithMessage("done")
	s.Stop() // stopping twice is safe

	output := buf.String()
	if strings.Count(output, "Scanning...") != 1 {
		t.Errorf("non-TTY spinner should print its message once, got: %q", output)
	}
	if !strings.HasSuffix(output, "done\n") {
		t.Errorf("final message missing, got: %q", output)
	}
}

func TestSpinner_Status(t *testing.T) {
	s := NewSpinner("Scanning")
	if got := s.status(); !strings.HasPrefix(got, "Scanning (") {
		t.Errorf("status without count = %q", got)
	}

	s.SetCount(7)
	if got := s.status(); !strings.HasPrefix(got, "Scanning 7 files (") {
		t.Errorf("status with count = %q", got)
	}
}
