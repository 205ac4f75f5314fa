// ABOUTME: Flight search, booking, booking history, and ticket commands
// ABOUTME: Booking collects passengers from flags or the interactive wizard

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
	"github.com/flightdesk/flightdesk/internal/tui/recent"
	"github.com/flightdesk/flightdesk/internal/tui/wizard"
	"github.com/flightdesk/flightdesk/internal/validate"
)

type searchOptions struct {
	from string
	to   string
	date string
	last bool
}

type bookOptions struct {
	email      string
	passengers []string
}

var (
	searchOpts searchOptions
	bookOpts   bookOptions
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search scheduled flights",
	Long: `Search scheduled flights between two airports on a date (yyyy-MM-dd).
The date defaults to today. Searches are remembered; --last repeats the most
recent one.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSearch(ctx, os.Stdout, searchOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var bookCmd = &cobra.Command{
	Use:   "book <scheduleId>",
	Short: "Book seats on a scheduled flight",
	Long: `Book seats on a scheduled flight.

Passengers are given as "Full Name,GENDER,AGE,SEAT[,MEAL]", one --passenger
flag each. Without passengers the booking wizard runs in the terminal.`,
	Example: `  flightdesk book S-100 --email alice@example.com \
    --passenger "Alice Smith,FEMALE,34,12A" --passenger "Bob Smith,MALE,36,12B,NON_VEG"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runBook(ctx, os.Stdout, args[0], bookOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "List your bookings",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runBookings(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var ticketCmd = &cobra.Command{
	Use:   "ticket <ticketId>",
	Short: "Show a ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTicket(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchOpts.from, "from", "", "Origin airport code, e.g. DEL")
	searchCmd.Flags().StringVar(&searchOpts.to, "to", "", "Destination airport code, e.g. BOM")
	searchCmd.Flags().StringVar(&searchOpts.date, "date", "", "Flight date (yyyy-MM-dd, default today)")
	searchCmd.Flags().BoolVar(&searchOpts.last, "last", false, "Repeat the most recent search")

	bookCmd.Flags().StringVar(&bookOpts.email, "email", "", "Contact email (default: your account email)")
	bookCmd.Flags().StringArrayVar(&bookOpts.passengers, "passenger", nil, "Passenger as name,gender,age,seat[,meal] (repeatable)")

	rootCmd.AddCommand(searchCmd, bookCmd, bookingsCmd, ticketCmd)
}

// runSearch searches schedules and returns exit code
func runSearch(ctx context.Context, w io.Writer, opts searchOptions) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathSearch); !ok {
		return code
	}

	searches := recent.New(a.cfg.ConfigDir)
	search := forms.Search{From: opts.from, To: opts.to, Date: opts.date}
	if opts.last {
		last, ok := searches.Latest()
		if !ok {
			fmt.Fprintln(w, "Error: no recent search to repeat")
			return 1
		}
		search = forms.Search{From: last.From, To: last.To, Date: last.Date}
	}
	if search.Date == "" {
		search.Date = time.Now().Format(validate.DateLayout)
	}
	if search.From == "" || search.To == "" {
		if last, ok := searches.Latest(); ok && search.From == "" && search.To == "" {
			search = forms.Search{From: last.From, To: last.To, Date: last.Date}
		}
		if code := prompt(w, "--from and --to", forms.SearchFlights(&search, time.Now)); code != 0 {
			return code
		}
	}

	req, err := search.Request(time.Now)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	schedules, err := a.client.SearchFlights(ctx, req)
	if err != nil {
		return a.fail(w, err)
	}
	if err := searches.Add(recent.Search{From: req.OriginAirport, To: req.DestinationAirport, Date: req.FlightDate}); err != nil {
		slog.Warn("Failed to save recent search", "error", err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(schedules))
	} else {
		fmt.Fprintln(w, formatSearchHuman(req, schedules))
	}
	return 0
}

// formatSearchHuman formats search results as a table
func formatSearchHuman(req client.FlightSearchRequest, schedules []client.FlightSchedule) string {
	heading := fmt.Sprintf("%s (%s) to %s (%s) on %s",
		validate.AirportName(req.OriginAirport), req.OriginAirport,
		validate.AirportName(req.DestinationAirport), req.DestinationAirport,
		req.FlightDate)
	if len(schedules) == 0 {
		return heading + "\n\nNo flights found."
	}

	t := table.New().Headers("SCHEDULE", "FLIGHT", "AIRLINE", "DEPARTS", "ARRIVES", "FARE", "SEATS", "STATUS")
	for _, s := range schedules {
		t.Row(
			s.ScheduleID,
			s.FlightNumber,
			s.Airline,
			s.DepartureTime,
			s.ArrivalTime,
			formatFare(s.Fare),
			fmt.Sprintf("%d/%d", s.AvailableSeats, s.TotalSeats),
			s.Status,
		)
	}
	return fmt.Sprintf("%s\n\n%s\n\nBook with: flightdesk book <schedule>", heading, t.Render())
}

// runBook books seats and returns exit code
func runBook(ctx context.Context, w io.Writer, scheduleID string, opts bookOptions) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, "/booking/"+scheduleID); !ok {
		return code
	}

	schedule, err := a.client.GetSchedule(ctx, scheduleID)
	if err != nil {
		return a.fail(w, err)
	}

	email := opts.email
	if email == "" {
		email = a.store.Current().Email
	}

	var req client.BookingCreateRequest
	if len(opts.passengers) > 0 {
		req, err = bookingFromFlags(email, opts.passengers)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 1
		}
	} else {
		if !interactive() {
			fmt.Fprintln(w, "Error: at least one --passenger is required")
			return 1
		}
		req, err = wizard.New(schedule, email).Run()
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(w, "Booking cancelled.")
			return 1
		}
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 1
		}
	}

	pnr, err := a.client.CreateBooking(ctx, scheduleID, req)
	if err != nil {
		return a.fail(w, err)
	}

	total := schedule.Fare * float64(len(req.Passengers))
	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(map[string]any{
			"pnr":        pnr,
			"scheduleId": scheduleID,
			"passengers": len(req.Passengers),
			"totalFare":  total,
		}))
	} else {
		fmt.Fprintf(w, "Booked %d seat(s) on %s %s to %s, %s %s\nPNR:   %s\nTotal: %s\n",
			len(req.Passengers), schedule.FlightNumber, schedule.OriginAirport, schedule.DestinationAirport,
			schedule.FlightDate, schedule.DepartureTime, pnr, formatFare(total))
	}
	return 0
}

// bookingFromFlags builds a booking from --passenger values
func bookingFromFlags(email string, values []string) (client.BookingCreateRequest, error) {
	passengers := make([]forms.Passenger, 0, len(values))
	for _, v := range values {
		p, err := forms.ParsePassenger(v)
		if err != nil {
			return client.BookingCreateRequest{}, err
		}
		passengers = append(passengers, p)
	}
	contact := forms.Contact{Email: email, Passengers: strconv.Itoa(len(passengers))}
	return forms.BookingRequest(contact, passengers)
}

// runBookings lists the booking history and returns exit code
func runBookings(ctx context.Context, w io.Writer) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathBookings); !ok {
		return code
	}

	bookings, err := a.client.Bookings(ctx)
	if err != nil {
		return a.fail(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(bookings))
	} else {
		fmt.Fprintln(w, formatBookingsHuman(bookings))
	}
	return 0
}

// formatBookingsHuman formats the booking history as a table
func formatBookingsHuman(bookings []client.Booking) string {
	if len(bookings) == 0 {
		return "No bookings yet. Find a flight with 'flightdesk search'."
	}

	t := table.New().Headers("PNR", "SCHEDULE", "FLIGHT", "STATUS", "FARE", "BOOKED", "TICKETS")
	for _, b := range bookings {
		ids := make([]string, 0, len(b.Tickets))
		for _, tk := range b.Tickets {
			ids = append(ids, tk.TicketID)
		}
		t.Row(b.PNR, b.ScheduleID, b.FlightNumber, b.Status, formatFare(b.TotalFare), b.BookedAt, strings.Join(ids, " "))
	}
	return t.Render()
}

// runTicket shows a ticket with its flight and returns exit code
func runTicket(ctx context.Context, w io.Writer, ticketID string) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, "/ticket/"+ticketID); !ok {
		return code
	}

	ticket, err := a.client.GetTicket(ctx, ticketID)
	if err != nil {
		return a.fail(w, err)
	}

	// The ticket is still shown when its flight cannot be loaded
	schedule, err := a.client.GetSchedule(ctx, ticket.ScheduleID)
	if err != nil {
		slog.Warn("Failed to load schedule for ticket", "ticket_id", ticketID, "schedule_id", ticket.ScheduleID, "error", err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(map[string]any{"ticket": ticket, "schedule": schedule}))
	} else {
		fmt.Fprintln(w, formatTicketHuman(ticket, schedule))
	}
	return 0
}

// formatTicketHuman formats a ticket for human readability
func formatTicketHuman(t *client.Ticket, s *client.FlightSchedule) string {
	out := fmt.Sprintf(`Ticket:    %s
PNR:       %s
Passenger: %s
Seat:      %s
Meal:      %s
Status:    %s`, t.TicketID, t.PNR, t.PassengerName, t.SeatNumber, valueOr(t.MealOption, "--"), t.Status)

	if s == nil {
		return out + "\n\nFlight details unavailable"
	}
	return out + fmt.Sprintf(`

Flight:    %s (%s)
Route:     %s (%s) to %s (%s)
Date:      %s
Departs:   %s
Arrives:   %s`, s.FlightNumber, s.Airline,
		validate.AirportName(s.OriginAirport), s.OriginAirport,
		validate.AirportName(s.DestinationAirport), s.DestinationAirport,
		s.FlightDate, s.DepartureTime, s.ArrivalTime)
}

func formatFare(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
