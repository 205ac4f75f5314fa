// ABOUTME: Admin commands for managing flights and schedules
// ABOUTME: Every command is gated on the admin role

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
)

var (
	flightOpts   forms.Flight
	scheduleOpts forms.Schedule
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage flights and schedules (admin only)",
}

var adminFlightsCmd = &cobra.Command{
	Use:   "flights",
	Short: "List and create flights",
}

var adminFlightsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered flights",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runFlightsList(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var adminFlightsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a flight",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runFlightCreate(ctx, os.Stdout, flightOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var adminSchedulesCmd = &cobra.Command{
	Use:   "schedules",
	Short: "Manage flight schedules",
}

var adminSchedulesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Schedule a flight on a date",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runScheduleCreate(ctx, os.Stdout, scheduleOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	f := adminFlightsCreateCmd.Flags()
	f.StringVar(&flightOpts.Number, "number", "", "Flight number, e.g. AI101")
	f.StringVar(&flightOpts.Airline, "airline", "", "Airline, e.g. AIR_INDIA")
	f.StringVar(&flightOpts.Origin, "from", "", "Origin airport code")
	f.StringVar(&flightOpts.Destination, "to", "", "Destination airport code")
	f.StringVar(&flightOpts.Capacity, "capacity", "", "Seat capacity (1-1000)")

	s := adminSchedulesCreateCmd.Flags()
	s.StringVar(&scheduleOpts.FlightNumber, "flight", "", "Flight number")
	s.StringVar(&scheduleOpts.Date, "date", "", "Flight date (yyyy-MM-dd)")
	s.StringVar(&scheduleOpts.Departure, "departure", "", "Departure time (HH:mm)")
	s.StringVar(&scheduleOpts.Arrival, "arrival", "", "Arrival time (HH:mm)")
	s.StringVar(&scheduleOpts.Fare, "fare", "", "Fare per seat")

	adminFlightsCmd.AddCommand(adminFlightsListCmd, adminFlightsCreateCmd)
	adminSchedulesCmd.AddCommand(adminSchedulesCreateCmd)
	adminCmd.AddCommand(adminFlightsCmd, adminSchedulesCmd)
	rootCmd.AddCommand(adminCmd)
}

// runFlightsList lists flights and returns exit code
func runFlightsList(ctx context.Context, w io.Writer) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathAdminFlights); !ok {
		return code
	}

	flights, err := a.client.ListFlights(ctx)
	if err != nil {
		return a.fail(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(flights))
	} else {
		fmt.Fprintln(w, formatFlightsHuman(flights))
	}
	return 0
}

// formatFlightsHuman formats registered flights as a table
func formatFlightsHuman(flights []client.FlightResponse) string {
	if len(flights) == 0 {
		return "No flights registered."
	}

	t := table.New().Headers("FLIGHT", "AIRLINE", "FROM", "TO", "SEATS")
	for _, f := range flights {
		t.Row(f.FlightNumber, f.Airline, f.OriginAirport, f.DestinationAirport, strconv.Itoa(f.SeatCapacity))
	}
	return t.Render()
}

// runFlightCreate registers a flight and returns exit code
func runFlightCreate(ctx context.Context, w io.Writer, flight forms.Flight) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathAdminNewFlight); !ok {
		return code
	}

	if flight.Number == "" || flight.Airline == "" || flight.Origin == "" || flight.Destination == "" || flight.Capacity == "" {
		if code := prompt(w, "--number, --airline, --from, --to and --capacity", forms.FlightForm(&flight)); code != 0 {
			return code
		}
	}

	req, err := flight.Request()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	ack, err := a.client.CreateFlight(ctx, req)
	if err != nil {
		return a.fail(w, err)
	}
	printAck(w, ack, fmt.Sprintf("Schedule it with 'flightdesk admin schedules create --flight %s'.", req.FlightNumber))
	return 0
}

// runScheduleCreate schedules a flight and returns exit code
func runScheduleCreate(ctx context.Context, w io.Writer, schedule forms.Schedule) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathAdminSchedule); !ok {
		return code
	}

	if schedule.FlightNumber == "" || schedule.Date == "" || schedule.Departure == "" || schedule.Arrival == "" || schedule.Fare == "" {
		if code := prompt(w, "--flight, --date, --departure, --arrival and --fare", forms.ScheduleForm(&schedule, time.Now)); code != 0 {
			return code
		}
	}

	req, err := schedule.Request(time.Now)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	ack, err := a.client.CreateSchedule(ctx, req)
	if err != nil {
		return a.fail(w, err)
	}
	printAck(w, ack, "")
	return 0
}
