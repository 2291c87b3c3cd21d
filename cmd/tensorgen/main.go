// Command tensorgen samples tensorcheck generators so their output can be
// inspected: a kind of value, a count, a seed, and an optional YAML profile
// for constraints.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
