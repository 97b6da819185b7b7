// cmd_history.go - History Command: vergangene Laeufe und ihre Zeilen
// Hauptfunktionen: HistoryHandler, shortID
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/larch-ml/larch/format"
	"github.com/larch-ml/larch/store"
)

// HistoryHandler - Listet gespeicherte Laeufe auf
//
// Mit einer Lauf-ID als Argument werden stattdessen die
// Ergebnis-Zeilen dieses Laufs angezeigt. Die ID darf auf ihre ersten
// Zeichen verkuerzt sein.
func HistoryHandler(cmd *cobra.Command, args []string) error {
	s := &store.Store{}
	defer s.Close()

	if len(args) == 1 {
		return showRunRows(s, args[0])
	}

	runs, err := s.ListRuns()
	if err != nil {
		return err
	}

	var data [][]string
	for _, r := range runs {
		data = append(data, []string{
			shortID(r.ID),
			format.HumanTime(r.Started, "Never"),
			r.Device,
			r.Test,
			r.Fuser,
			strconv.Itoa(r.Rows),
			r.Version,
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "STARTED", "DEVICE", "TEST", "FUSER", "ROWS", "VERSION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// showRunRows - Zeigt die Ergebnis-Zeilen eines Laufs
func showRunRows(s *store.Store, id string) error {
	runs, err := s.ListRuns()
	if err != nil {
		return err
	}

	var full string
	for _, r := range runs {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if full != "" {
			return fmt.Errorf("run id %q is ambiguous", id)
		}
		full = r.ID
	}
	if full == "" {
		return fmt.Errorf("no run with id %q", id)
	}

	rows, err := s.RunRows(full)
	if err != nil {
		return err
	}

	var data [][]string
	for _, r := range rows {
		data = append(data, []string{
			r.Name,
			r.Device,
			r.Experiment,
			r.Metric,
			strconv.FormatFloat(r.Value, 'f', 4, 64),
			strconv.FormatFloat(r.PValue, 'e', 2, 64),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "DEVICE", "EXPERIMENT", "METRIC", "VALUE", "PVALUE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

// shortID - Kuerzt eine Lauf-ID fuer die Anzeige
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// newHistoryCmd - Erstellt den history Command
func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List past benchmark runs",
		Args:  cobra.MaximumNArgs(1),
		RunE:  HistoryHandler,
	}
}
