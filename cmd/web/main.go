package main

import (
	"tradeboard_backend/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	app.Run()
}
