// bar.go - Fortschrittsbalken fuer zaehlbare Arbeit

package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Bar zeigt Fortschritt ueber einer bekannten Gesamtzahl an.
// Die Balkenbreite passt sich der Terminalbreite an.
type Bar struct {
	message string

	mu        sync.Mutex
	completed int64
	total     int64

	started time.Time
}

func NewBar(message string, total, completed int64) *Bar {
	return &Bar{
		message:   message,
		total:     total,
		completed: completed,
		started:   time.Now(),
	}
}

// Set aktualisiert den Fortschritt, begrenzt auf die Gesamtzahl
func (b *Bar) Set(value int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.completed = min(value, b.total)
}

func (b *Bar) String() string {
	b.mu.Lock()
	completed, total := b.completed, b.total
	b.mu.Unlock()

	var pct float64
	if total > 0 {
		pct = float64(completed) / float64(total)
	}

	var sb strings.Builder
	if b.message != "" {
		sb.WriteString(strings.TrimSpace(b.message))
		sb.WriteString(" ")
	}
	fmt.Fprintf(&sb, "%3.0f%%", pct*100)

	termWidth, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil {
		termWidth = 80
	}

	counts := fmt.Sprintf(" %d/%d", completed, total)
	width := termWidth - runewidth.StringWidth(sb.String()) - runewidth.StringWidth(counts) - 3
	if width >= 8 {
		filled := int(float64(width) * pct)
		sb.WriteString(" ▕")
		sb.WriteString(strings.Repeat("█", filled))
		sb.WriteString(strings.Repeat(" ", width-filled))
		sb.WriteString("▏")
	}
	sb.WriteString(counts)

	return sb.String()
}
