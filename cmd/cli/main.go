package main

import (
	"os"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
