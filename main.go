package main

import (
	"github.com/joho/godotenv"

	"github.com/pqhub/pqhub-cli/cmd"
)

func main() {
	// A .env next to the binary may carry PQHUB_* variables.
	_ = godotenv.Load()
	cmd.Execute()
}
