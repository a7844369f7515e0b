package main

import (
	"github.com/joho/godotenv"

	"github.com/tourstack/go-portal-client/internal/cmd"
)

func main() {
	// A missing .env is fine; environment variables still apply.
	_ = godotenv.Load()
	cmd.Execute()
}
