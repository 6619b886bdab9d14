package main

import (
	"log/slog"

	"github.com/joho/godotenv"

	"github.com/Smoothestguy/commndx-sub004/internal/app/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	server.Run()
}
