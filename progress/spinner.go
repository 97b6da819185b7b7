// spinner.go - Drehende Statusanzeige

package progress

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Spinner zeigt eine Nachricht mit rotierendem Zeichen.
// Der Frame rueckt bei jedem Render-Tick weiter.
type Spinner struct {
	message atomic.Value
	parts   []string

	mu      sync.Mutex
	value   int
	stopped bool

	started time.Time
}

func NewSpinner(message string) *Spinner {
	s := &Spinner{
		parts:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		started: time.Now(),
	}
	s.SetMessage(message)
	return s
}

func (s *Spinner) SetMessage(message string) {
	s.message.Store(message)
}

func (s *Spinner) String() string {
	var sb strings.Builder

	if message, ok := s.message.Load().(string); ok && len(message) > 0 {
		sb.WriteString(strings.TrimSpace(message))
		sb.WriteString(" ")
	}

	s.mu.Lock()
	if !s.stopped {
		sb.WriteString(s.parts[s.value])
		s.value = (s.value + 1) % len(s.parts)
	}
	s.mu.Unlock()

	return sb.String()
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}
