// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs, versionHandler
package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/containerd/console"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/larch-ml/larch/envconfig"
	"github.com/larch-ml/larch/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-24s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// versionHandler - Zeigt die Version an
func versionHandler(_ *cobra.Command, _ []string) {
	fmt.Printf("larch version is %s\n", version.Version)
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	if runtime.GOOS == "windows" && term.IsTerminal(int(os.Stdout.Fd())) {
		console.ConsoleFromFile(os.Stdin) //nolint:errcheck
	}

	rootCmd := &cobra.Command{
		Use:           "larch",
		Short:         "Benchmark harness for eager and deferred tensor execution",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	benchCmd := newBenchCmd()
	modelsCmd := newModelsCmd()
	historyCmd := newHistoryCmd()
	importCmd := newImportCmd()
	serveCmd := newServeCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()

	for _, cmd := range []*cobra.Command{benchCmd, modelsCmd, historyCmd, importCmd, serveCmd} {
		switch cmd {
		case benchCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["LARCH_DEBUG"],
				envVars["LARCH_MODELS"],
				envVars["LARCH_OUTPUT"],
				envVars["LARCH_TS_CUDA"],
				envVars["LARCH_QUEUE_DEPTH"],
				envVars["LARCH_DUMP_COUNTERS"],
				envVars["LARCH_NOOP_EXECUTE"],
				envVars["LARCH_HISTORY"],
				envVars["LARCH_NOHISTORY"],
			})
		case serveCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{
				envVars["LARCH_DEBUG"],
				envVars["LARCH_HOST"],
				envVars["LARCH_ORIGINS"],
				envVars["LARCH_HISTORY"],
			})
		case modelsCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["LARCH_MODELS"]})
		case historyCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["LARCH_HISTORY"]})
		}
	}

	rootCmd.AddCommand(
		benchCmd,
		modelsCmd,
		historyCmd,
		importCmd,
		serveCmd,
	)

	return rootCmd
}
