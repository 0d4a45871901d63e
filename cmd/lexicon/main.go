// Command lexicon assembles the terminology knowledge base and maintains the
// patient ledger.
package main

import (
	"os"

	"github.com/mesh-intelligence/lexicon/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
