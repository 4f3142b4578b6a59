package main

import (
	"log/slog"

	"github.com/OWASP-BLT/BLT-sub001/internal/cli"
	"github.com/OWASP-BLT/BLT-sub001/internal/logging"
)

func main() {
	logging.Init(slog.LevelError)
	cli.Execute()
}
