package main

import (
	"context"
	"fmt"
	"os"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/cli"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

var version = "dev"

func main() {
	err := cli.NewRootCmd(version).ExecuteContext(context.Background())
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
	}
	os.Exit(1)
}
