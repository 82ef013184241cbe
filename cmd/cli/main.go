// Command multi-summaries assembles condensed multi-level bisimulation
// summary graphs from partition-replay output and extracts quotient
// graphs from the result.
package main

import (
	"github.com/R-van-Bakel/Multi-Summaries/cmd/cli/cmd"
)

func main() {
	cmd.Execute()
}
