// cmd_import.go - Import Command: Checkpoint-Konvertierung
// Hauptfunktionen: ImportHandler
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/larch-ml/larch/convert"
	"github.com/larch-ml/larch/format"
	"github.com/larch-ml/larch/progress"
)

// ImportHandler - Konvertiert einen Checkpoint in das Katalog-Layout
func ImportHandler(cmd *cobra.Command, args []string) error {
	outDir, _ := cmd.Flags().GetString("output-dir")

	p := progress.NewProgress(os.Stderr)
	defer p.Stop()

	spinner := progress.NewSpinner("reading checkpoint")
	p.Add("import", spinner)

	// Der erste Fortschritts-Aufruf ersetzt den Spinner durch den
	// Balken unter demselben Schluessel.
	var bar *progress.Bar
	fn := func(converted, total int) {
		if bar == nil {
			spinner.Stop()
			bar = progress.NewBar("converting tensors", int64(total), int64(converted))
			p.Add("import", bar)
		}
		bar.Set(int64(converted))
	}

	res, err := convert.Import(args[0], outDir, fn)
	p.StopAndClear()
	if err != nil {
		return err
	}

	var data [][]string
	for _, t := range res.Tensors {
		data = append(data, []string{
			t.Name,
			t.DType.String(),
			shapeString(t.Shape),
			format.HumanNumber(uint64(t.Elements())),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"TENSOR", "TYPE", "SHAPE", "ELEMENTS"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	fmt.Printf("\nwrote %s\n", res.ProgPath)
	fmt.Printf("wrote %s\n", res.WeightsPath)
	return nil
}

// shapeString - Formatiert eine Shape wie im Programm-Format
func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// newImportCmd - Erstellt den import Command
func newImportCmd() *cobra.Command {
	importCmd := &cobra.Command{
		Use:   "import CHECKPOINT",
		Short: "Convert a checkpoint into a program and weights pair",
		Args:  cobra.ExactArgs(1),
		RunE:  ImportHandler,
	}

	importCmd.Flags().StringP("output-dir", "o", ".", "Directory for the converted files")

	return importCmd
}
