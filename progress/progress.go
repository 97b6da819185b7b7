// Package progress - Mehrzeilige Fortschrittsanzeige fuer die CLI
// Beinhaltet: State-Interface, Progress-Renderer mit Ticker
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// State ist eine einzelne Anzeigezeile
type State interface {
	String() string
}

type entry struct {
	key   string
	state State
}

// Progress rendert alle registrierten States periodisch auf den Writer
type Progress struct {
	mu sync.Mutex
	w  io.Writer

	pos     int
	entries []entry

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewProgress(w io.Writer) *Progress {
	p := &Progress{
		w:      w,
		ticker: time.NewTicker(100 * time.Millisecond),
		done:   make(chan struct{}),
	}
	p.wg.Add(1)
	go p.start()
	return p
}

func (p *Progress) start() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ticker.C:
			p.render()
		case <-p.done:
			return
		}
	}
}

// Add registriert eine Anzeige unter einem Schluessel.
// Ein bereits vorhandener Schluessel ersetzt die bestehende Zeile.
func (p *Progress) Add(key string, state State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, e := range p.entries {
		if e.key == key {
			p.entries[i].state = state
			return
		}
	}

	p.entries = append(p.entries, entry{key: key, state: state})
}

func (p *Progress) stop() bool {
	p.mu.Lock()
	stopped := p.ticker != nil
	if stopped {
		p.ticker.Stop()
		p.ticker = nil
		close(p.done)
	}
	entries := p.entries
	p.mu.Unlock()

	if !stopped {
		return false
	}

	// auf den Render-Tick warten, danach schreibt nur noch der Aufrufer
	p.wg.Wait()

	for _, e := range entries {
		if spinner, ok := e.state.(*Spinner); ok {
			spinner.Stop()
		}
	}

	p.render()
	return true
}

// Stop beendet das Rendering und laesst die letzte Anzeige stehen
func (p *Progress) Stop() bool {
	stopped := p.stop()
	if stopped {
		fmt.Fprint(p.w, "\n")
	}
	return stopped
}

// StopAndClear beendet das Rendering und entfernt alle Anzeigezeilen
func (p *Progress) StopAndClear() bool {
	fmt.Fprint(p.w, "\033[?25l")
	defer fmt.Fprint(p.w, "\033[?25h")

	stopped := p.stop()
	if stopped {
		for i := range p.pos {
			if i > 0 {
				fmt.Fprint(p.w, "\033[A")
			}
			fmt.Fprint(p.w, "\033[2K\033[1G")
		}
		p.pos = 0
	}

	return stopped
}

func (p *Progress) render() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprint(p.w, "\033[?25l")
	defer fmt.Fprint(p.w, "\033[?25h")

	// bereits gerenderte Zeilen loeschen
	for i := range p.pos {
		if i > 0 {
			fmt.Fprint(p.w, "\033[A")
		}
		fmt.Fprint(p.w, "\033[2K\033[1G")
	}

	for i, e := range p.entries {
		fmt.Fprint(p.w, e.state.String(), "\033[K")
		if i < len(p.entries)-1 {
			fmt.Fprint(p.w, "\n")
		}
	}

	p.pos = len(p.entries)
}
