// Package main is the entry point for the seqr CLI binary.
package main

import (
	"os"

	"github.com/populationgenomics/seqr/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
