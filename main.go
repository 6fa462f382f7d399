package main

import (
	"os"

	"github.com/accidentalproductions/tetristats/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
