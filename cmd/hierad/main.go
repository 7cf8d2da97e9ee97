// Command hierad runs the Hiera Engine as a standalone service: an HTTP
// admin/lookup surface backed by MongoDB, kept consistent across
// instances by the change-stream synchronisers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Polqt/hieraengine/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "hierad:", err)
		os.Exit(1)
	}
}
