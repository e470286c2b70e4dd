package main

import (
	"os"

	"github.com/lloyd42/whisper-asr-client/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
