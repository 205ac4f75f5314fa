// ABOUTME: Root command for the flightdesk CLI
// ABOUTME: Handles global flags and configuration overrides

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	apiURL      string
	jsonOutput  bool
	storageMode string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "flightdesk",
	Short: "Search, book, and manage flights from the terminal",
	Long: `flightdesk is a command-line client for the flight booking service.

Sign in once with 'flightdesk login'; the session is kept in the config
directory and shared by every command and the interactive UI ('flightdesk ui').

Environment Variables:
  FLIGHTDESK_API_URL       API gateway URL (default: http://localhost:8765)
  FLIGHTDESK_CONFIG_DIR    Session and log directory
                           (default: $XDG_CONFIG_HOME/flightdesk or ~/.config/flightdesk)
  FLIGHTDESK_STORAGE       Session storage: file, memory, redis (default: file)
  FLIGHTDESK_REDIS_URL     Redis URL when FLIGHTDESK_STORAGE=redis
  FLIGHTDESK_SESSION_TTL   Redis session expiry in seconds (default: none)
  FLIGHTDESK_HTTP_TIMEOUT  Request timeout in seconds (default: 30)
  FLIGHTDESK_ALL_PROXY     ssh+socks5:// proxy for reaching the API
  LOG_LEVEL, LOG_FORMAT    Logging (debug|info|warn|error, text|json)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API gateway URL (overrides FLIGHTDESK_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&storageMode, "storage", "", "Session storage: file, memory, redis (overrides FLIGHTDESK_STORAGE)")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
