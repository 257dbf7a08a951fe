// Command agora is a document question-answering CLI: ingest PDFs and
// text files, retrieve sections by similarity and ask grounded
// questions.
package main

import (
	"os"

	"github.com/agora-labs/agora-cli/internal/adapters/driving/cli"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
