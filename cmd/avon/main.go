// Command avon is the Avon language CLI: evaluate expressions, deploy the
// file set an Avon program describes, or explore either interactively.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError(err.Error()))
		os.Exit(1)
	}
}
