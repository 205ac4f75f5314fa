// ABOUTME: Health command for flightdesk CLI
// ABOUTME: Checks API gateway connectivity and component status

package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/flightdesk/flightdesk/internal/client"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check API gateway connectivity",
	Long:  `Check connectivity to the flight API gateway and report the status of its components.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, w io.Writer) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, "/health"); !ok {
		return code
	}

	resp, err := a.client.Health(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %s\n", client.Message(err))
		return 2
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(a.cfg.APIURL, resp))
	} else {
		fmt.Fprintln(w, formatHealthHuman(a.cfg.APIURL, resp))
	}

	if resp.Status != "UP" {
		return 2
	}
	return 0
}

// formatHealthHuman formats health response for human readability
func formatHealthHuman(url string, resp *client.HealthResponse) string {
	out := fmt.Sprintf("Gateway: %s\nStatus:  %s", url, resp.Status)
	if len(resp.Components) == 0 {
		return out
	}

	t := table.New().Headers("COMPONENT", "STATUS")
	for _, name := range slices.Sorted(maps.Keys(resp.Components)) {
		t.Row(name, resp.Components[name].Status)
	}
	return out + "\n\n" + t.Render()
}

// formatHealthJSON formats health response as JSON
func formatHealthJSON(url string, resp *client.HealthResponse) string {
	components := make(map[string]string, len(resp.Components))
	for name, c := range resp.Components {
		components[name] = c.Status
	}
	return toJSON(map[string]any{
		"gateway":    url,
		"status":     resp.Status,
		"components": components,
	})
}
