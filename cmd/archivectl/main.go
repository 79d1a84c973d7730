// Command archivectl is a cobra/viper surface over pkg/archive, for users
// who prefer the cobra ecosystem's config/env/flag precedence over
// fsarchive's usage-based flags. It reads and writes the same archives
// cmd/fsarchive does; it is a second skin over the same core, not a
// second implementation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
