// main.go - Einstiegspunkt des larch-Binaries
package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/larch-ml/larch/cmd"
)

func main() {
	cobra.CheckErr(cmd.NewCLI().ExecuteContext(context.Background()))
}
