// Command ledgerctl inspects and repairs a learner's progress ledger.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newCLI()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
