// Command cdhtpeer runs a single peer of the circular distributed hash
// table ring described in internal/peer.
package main

import (
	"fmt"
	"os"

	"github.com/ringkeeper/cdht-peer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cdhtpeer:", err)
		os.Exit(1)
	}
}
