package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/rolo/internal/cli"
)

func main() {
	level := slog.LevelWarn
	if os.Getenv("ROLO_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
