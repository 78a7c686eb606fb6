/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command recordctl runs queries and aggregates against a configured entity
// store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
