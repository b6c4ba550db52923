package main

import (
	"os"

	"github.com/wonny/cryptoscore/cmd/scorer/commands"
)

// main is the entry point for the cryptoscore CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/scorer [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
