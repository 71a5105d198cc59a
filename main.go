package main

import (
	"os"

	"github.com/ausiq/corpuschat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
