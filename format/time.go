// time.go - Formatierung von Zeiten und Dauern
// Enthält: HumanDuration, HumanTime
package format

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// HumanDuration gibt eine Dauer in der groessten sinnvollen Einheit aus
func HumanDuration(d time.Duration) string {
	seconds := int(d.Seconds())

	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%v µs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%v ms", d.Milliseconds())
	case seconds < 60:
		return fmt.Sprintf("%gs", math.Round(d.Seconds()*1000)/1000)
	case seconds < 60*60:
		return fmt.Sprintf("%d minutes", seconds/60)
	case seconds < 60*60*24:
		return fmt.Sprintf("%d hours", seconds/(60*60))
	default:
		return fmt.Sprintf("%d days", seconds/(60*60*24))
	}
}

// HumanTime gibt einen Zeitpunkt relativ zu jetzt aus ("3 minutes ago")
func HumanTime(t time.Time, zeroValue string) string {
	return humanTime(t, zeroValue)
}

func humanTime(t time.Time, zeroValue string) string {
	if t.IsZero() {
		return zeroValue
	}

	delta := time.Since(t)
	if delta < 0 {
		return strings.TrimSpace(HumanDuration(-delta)) + " from now"
	}

	if delta < time.Second {
		return "less than a second ago"
	}

	return strings.TrimSpace(HumanDuration(delta)) + " ago"
}
