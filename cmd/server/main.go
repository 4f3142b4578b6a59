package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/OWASP-BLT/BLT-sub001/internal/logging"
	"github.com/OWASP-BLT/BLT-sub001/internal/server"
	"github.com/OWASP-BLT/BLT-sub001/internal/signaling"
)

func main() {
	logging.Init(slog.LevelInfo)

	hub := signaling.NewHub()
	go hub.Run()

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	slog.Info("starting signaling server", "addr", addr)
	log.Fatal(http.ListenAndServe(addr, server.New(hub)))
}
