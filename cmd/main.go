package main

import (
	"os"

	"github.com/issakobayashi1992/Lightning-league/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
