// Command marketplace serves the plan, entitlement and billing API of the
// vehicle marketplace and manages its schema and plan catalog.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
