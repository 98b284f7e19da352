package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for API keys and webhook URLs; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
