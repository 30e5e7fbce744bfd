// Command lcbclock runs a broadcast clock node: a virtual clock with a
// date-rollover alarm and an optional periodic alarm, persisted to SQLite.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
