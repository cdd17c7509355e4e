package main

import (
	"os"

	"quizwizz-play/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
