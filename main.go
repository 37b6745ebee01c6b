package main

import (
	"os"

	"github.com/abhishekrajdhar/rfp-responder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
