package main

import (
	"fmt"
	"os"
)

// @title Image API
// @version 1.0
// @description Stores images bound to (referenceId, referenceType) pairs.
// @BasePath /
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
