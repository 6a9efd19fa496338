// Command brandpulse is the CLI for running brand-health analyses over
// pharmaceutical review corpora: analyze, train, score, and report.
package main

import (
	"os"

	"github.com/turtacn/BrandPulse-Analytics/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
