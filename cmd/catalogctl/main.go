// Command catalogctl runs pairing maintenance against the catalog database:
// audits, code recomputation and development tokens for the API.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
