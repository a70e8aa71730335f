// Command rosterctl checks roster spreadsheets and project files offline,
// using the same pipelines as the server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rosterctl:", err)
		os.Exit(1)
	}
}
