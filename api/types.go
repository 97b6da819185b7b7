// Package api beschreibt die Wire-Typen des Debug-Servers.
package api

import "time"

// CountersResponse ist die Antwort von GET /api/counters
type CountersResponse struct {
	Counters map[string]int64 `json:"counters"`
}

// Run beschreibt einen persistierten Benchmark-Lauf
type Run struct {
	ID        string    `json:"id"`
	Started   time.Time `json:"started"`
	Device    string    `json:"device"`
	Test      string    `json:"test"`
	Fuser     string    `json:"fuser"`
	Warmup    int       `json:"warmup"`
	Repeat    int       `json:"repeat"`
	InnerLoop int       `json:"inner_loop"`
	Version   string    `json:"version"`
	Rows      int       `json:"rows"`
}

// RunsResponse ist die Antwort von GET /api/runs
type RunsResponse struct {
	Runs []Run `json:"runs"`
}

// Row ist eine einzelne Ergebniszeile eines Laufs
type Row struct {
	Name       string  `json:"name"`
	Device     string  `json:"device"`
	Experiment string  `json:"experiment"`
	Metric     string  `json:"metric"`
	Value      float64 `json:"value"`
	PValue     float64 `json:"pvalue"`
}

// RunRowsResponse ist die Antwort von GET /api/runs/:id
type RunRowsResponse struct {
	Rows []Row `json:"rows"`
}
