// format.go - Formatierung von Zahlen und Groessen fuer die Ausgabe
//
// Dieses Modul enthaelt:
// - HumanNumber: Abgekuerzte Zahlen (1.2M, 3.4K)
// - GroupDigits: Tausender-Gruppierung fuer Counter-Dumps
// - HumanBytes/HumanBytes2: Dezimale und binaere Groessen
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	Byte     = 1
	KiloByte = Byte * 1000
	MegaByte = KiloByte * 1000
	GigaByte = MegaByte * 1000
	TeraByte = GigaByte * 1000

	KibiByte = Byte * 1024
	MebiByte = KibiByte * 1024
	GibiByte = MebiByte * 1024
)

var englishPrinter = message.NewPrinter(language.English)

// HumanNumber kuerzt grosse Zahlen auf K/M/B-Suffixe
func HumanNumber(b uint64) string {
	switch {
	case b >= 1e9:
		number := float64(b) / 1e9
		if number == math.Floor(number) {
			return fmt.Sprintf("%.0fB", number)
		}
		return fmt.Sprintf("%.1fB", number)
	case b >= 1e6:
		number := float64(b) / 1e6
		if number == math.Floor(number) {
			return fmt.Sprintf("%.0fM", number)
		}
		return fmt.Sprintf("%.1fM", number)
	case b >= 1e3:
		number := float64(b) / 1e3
		if number == math.Floor(number) {
			return fmt.Sprintf("%.0fK", number)
		}
		return fmt.Sprintf("%.1fK", number)
	default:
		return fmt.Sprintf("%d", b)
	}
}

// GroupDigits formatiert eine Zahl mit Tausender-Trennzeichen (12,345,678)
func GroupDigits(n int64) string {
	return englishPrinter.Sprintf("%d", n)
}

// HumanBytes formatiert Bytes dezimal (1 GB = 1e9 Bytes)
func HumanBytes(b int64) string {
	var value float64
	var unit string

	switch {
	case b >= TeraByte:
		value = float64(b) / TeraByte
		unit = "TB"
	case b >= GigaByte:
		value = float64(b) / GigaByte
		unit = "GB"
	case b >= MegaByte:
		value = float64(b) / MegaByte
		unit = "MB"
	case b >= KiloByte:
		value = float64(b) / KiloByte
		unit = "KB"
	default:
		return fmt.Sprintf("%d B", b)
	}

	switch {
	case value >= 100:
		return fmt.Sprintf("%d %s", int(value), unit)
	case value >= 10:
		return fmt.Sprintf("%d %s", int(value), unit)
	case value != math.Trunc(value):
		return fmt.Sprintf("%.1f %s", value, unit)
	default:
		return fmt.Sprintf("%d %s", int(value), unit)
	}
}

// HumanBytes2 formatiert Bytes binaer (1 GiB = 2^30 Bytes)
func HumanBytes2(b uint64) string {
	switch {
	case b >= GibiByte:
		return fmt.Sprintf("%.1f GiB", float64(b)/GibiByte)
	case b >= MebiByte:
		return fmt.Sprintf("%.1f MiB", float64(b)/MebiByte)
	case b >= KibiByte:
		return fmt.Sprintf("%.1f KiB", float64(b)/KibiByte)
	default:
		return fmt.Sprintf("%d B", b)
	}
}
