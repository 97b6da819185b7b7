// handlers.go - Handler fuer Counter- und History-Endpunkte

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/larch-ml/larch/api"
)

// CountersHandler liefert einen Snapshot der Backend-Counter
func (s *Server) CountersHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.CountersResponse{Counters: s.metrics.Snapshot()})
}

// RunsHandler liefert alle persistierten Benchmark-Laeufe, neueste zuerst
func (s *Server) RunsHandler(c *gin.Context) {
	runs, err := s.store.ListRuns()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := api.RunsResponse{Runs: make([]api.Run, 0, len(runs))}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, api.Run{
			ID:        run.ID,
			Started:   run.Started,
			Device:    run.Device,
			Test:      run.Test,
			Fuser:     run.Fuser,
			Warmup:    run.Warmup,
			Repeat:    run.Repeat,
			InnerLoop: run.InnerLoop,
			Version:   run.Version,
			Rows:      run.Rows,
		})
	}

	c.JSON(http.StatusOK, resp)
}

// RunRowsHandler liefert die Ergebniszeilen eines Laufs.
// Unbekannte IDs ergeben eine leere Liste, kein 404.
func (s *Server) RunRowsHandler(c *gin.Context) {
	rows, err := s.store.RunRows(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := api.RunRowsResponse{Rows: make([]api.Row, 0, len(rows))}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, api.Row{
			Name:       row.Name,
			Device:     row.Device,
			Experiment: row.Experiment,
			Metric:     row.Metric,
			Value:      row.Value,
			PValue:     row.PValue,
		})
	}

	c.JSON(http.StatusOK, resp)
}
