// Command web runs the dashboard server: the JSON API, the websocket
// progress stream and the pipeline controller.
package main

import (
	"log/slog"
	"os"

	"cricpulse/internal/app"
)

func main() {
	application, err := app.NewApplication()
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
