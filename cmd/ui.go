// ABOUTME: Interactive terminal UI command
// ABOUTME: Logs go to the debug log in the config directory while the UI owns the screen

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flightdesk/flightdesk/internal/logger"
	"github.com/flightdesk/flightdesk/internal/tui"
	"github.com/flightdesk/flightdesk/internal/tui/recent"
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal UI for searching, booking, and managing
flights. The session is shared with the other commands, so signing out in
another terminal signs the UI out too.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runUI(ctx, os.Stderr)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}

// runUI runs the TUI and returns exit code
func runUI(ctx context.Context, w io.Writer) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	logFile, err := logger.OpenFile(cfg.ConfigDir)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer logFile.Close()
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: logFile})

	a, err := openApp(cfg)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if err := tui.Run(ctx, a.client, a.router, tui.WithRecentSearches(recent.New(cfg.ConfigDir))); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}
