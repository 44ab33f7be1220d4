package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"sheetpulse/internal/app"
)

func main() {
	// Variables already set in the environment win over .env.
	_ = godotenv.Load()

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
