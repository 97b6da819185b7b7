// output.go - CSV-Ausgabe der Experimente
//
// Dieses Modul enthaelt:
// - csvSink: Pro Dateiname gecachte Writer, Header nur bei leerer Datei
// - dumpCounters: Counter-Ausgabe nach einem Experiment
//
// Dateien werden im Append-Modus geoeffnet, damit mehrere Laeufe in
// dieselbe CSV schreiben koennen. Geschlossen und geleert wird in
// Oeffnungsreihenfolge.
package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/larch-ml/larch/format"
)

type csvFile struct {
	f *os.File
	w *csv.Writer
}

// csvSink caches one CSV writer per output filename.
type csvSink struct {
	dir   string
	files *orderedmap.OrderedMap[string, *csvFile]
}

func newCSVSink(dir string) *csvSink {
	return &csvSink{
		dir:   dir,
		files: orderedmap.New[string, *csvFile](),
	}
}

// writeRow appends a row to the named file, writing the header first
// when the file is new or empty.
func (s *csvSink) writeRow(name string, header, row []string) error {
	cf, ok := s.files.Get(name)
	if !ok {
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}

		st, err := f.Stat()
		if err != nil {
			f.Close()
			return err
		}

		cf = &csvFile{f: f, w: csv.NewWriter(f)}
		if st.Size() == 0 {
			if err := cf.w.Write(header); err != nil {
				f.Close()
				return err
			}
		}
		s.files.Set(name, cf)
	}

	return cf.w.Write(row)
}

// Close flushes and closes every cached writer. Closing twice is
// harmless; the second call sees an empty cache.
func (s *csvSink) Close() error {
	var errs []error
	for pair := s.files.Oldest(); pair != nil; pair = pair.Next() {
		pair.Value.w.Flush()
		errs = append(errs, pair.Value.w.Error(), pair.Value.f.Close())
	}
	s.files = orderedmap.New[string, *csvFile]()
	return errors.Join(errs...)
}

// dumpCounters prints a counter snapshot in name order.
func dumpCounters(w io.Writer, snap map[string]int64) {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprintln(w, "counters:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, format.GroupDigits(snap[name]))
	}
}
