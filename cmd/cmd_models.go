// cmd_models.go - Models Command: Katalog-Tabelle
// Hauptfunktionen: ModelsHandler
package cmd

import (
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/larch-ml/larch/envconfig"
	"github.com/larch-ml/larch/ml"
	"github.com/larch-ml/larch/model"
)

// ModelsHandler - Listet den Katalog auf, optional gefiltert per Praefix
func ModelsHandler(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("models-dir")
	if dir == "" {
		dir = envconfig.Models()
	}

	type source struct {
		descs []model.Descriptor
		label string
	}
	sources := []source{{model.Catalog(), "builtin"}}

	if dir != "" {
		external, err := model.ScanDir(dir)
		if err != nil {
			return err
		}
		sources = append(sources, source{external, dir})
	}

	var data [][]string
	for _, src := range sources {
		for _, d := range src.descs {
			if len(args) > 0 && !strings.HasPrefix(strings.ToLower(d.Name), strings.ToLower(args[0])) {
				continue
			}
			data = append(data, []string{
				d.Name,
				supportMark(d, model.ModeEval),
				supportMark(d, model.ModeTrain),
				src.label,
			})
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"NAME", "EVAL", "TRAIN", "SOURCE"})
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

// supportMark - Markiert die Modus-Unterstuetzung eines Eintrags
//
// Die Anzeige fragt das cpu-Geraet, das immer vorhanden ist; cuda
// haengt zusaetzlich an LARCH_TS_CUDA.
func supportMark(d model.Descriptor, mode model.Mode) string {
	if d.Supports(ml.DeviceCPU, mode) {
		return "yes"
	}
	return "-"
}

// newModelsCmd - Erstellt den models Command
func newModelsCmd() *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:     "models [PREFIX]",
		Aliases: []string{"ls"},
		Short:   "List benchmark models",
		Args:    cobra.MaximumNArgs(1),
		RunE:    ModelsHandler,
	}

	modelsCmd.Flags().String("models-dir", "", "Directory with serialized external catalog programs")

	return modelsCmd
}
