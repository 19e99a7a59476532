// Command asdf inspects and converts ASDF seismic archives.
package main

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/go-asdf/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
