// ABOUTME: Per-screen entry, key handling, and rendering for the TUI
// ABOUTME: Tables use bubbles/table; forms come from the forms package

package tui

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
	"github.com/flightdesk/flightdesk/internal/tui/icons"
	"github.com/flightdesk/flightdesk/internal/tui/menu"
	"github.com/flightdesk/flightdesk/internal/tui/styles"
	"github.com/flightdesk/flightdesk/internal/tui/widgets"
	"github.com/flightdesk/flightdesk/internal/validate"
)

// enter sets up the screen for the current location
func (a *App) enter() tea.Cmd {
	a.form = nil
	a.wizard = nil
	a.screen = screenFor(a.location)
	query := a.location.Query

	switch a.screen {
	case ScreenHome:
		a.menu = menu.New(a.session)

	case ScreenLogin:
		a.credentials.Password = ""
		return a.openForm(forms.Login(&a.credentials), a.signIn)

	case ScreenRegister:
		return a.openForm(forms.Register(&a.registration), a.signUp)

	case ScreenForgotPassword:
		return a.openForm(forms.ForgotPassword(&a.resetEmail), a.requestReset)

	case ScreenResetPassword:
		if token := query.Get("token"); token != "" {
			a.passwordReset.Token = token
		}
		return a.openForm(forms.ResetPassword(&a.passwordReset), a.resetPassword)

	case ScreenChangePassword:
		return a.openForm(forms.ChangePassword(&a.passwordChange), a.changePassword)

	case ScreenLogout:
		a.busy = true
		return a.signOut()

	case ScreenSearch:
		a.results = nil
		if from, to, date := query.Get("from"), query.Get("to"), query.Get("date"); from != "" && to != "" && date != "" {
			a.search = forms.Search{From: from, To: to, Date: date}
			a.busy = true
			return a.searchFlights()
		}
		if a.search.From == "" && a.recent != nil {
			if last, ok := a.recent.Latest(); ok {
				a.search = forms.Search{From: last.From, To: last.To, Date: last.Date}
			}
		}
		return a.openForm(forms.SearchFlights(&a.search, a.now), a.searchFlights)

	case ScreenBooking:
		a.busy = true
		return a.loadSchedule(a.location.Param("scheduleId"))

	case ScreenBookings:
		a.busy = true
		return a.loadBookings()

	case ScreenTicket:
		a.ticket, a.ticketSchedule = nil, nil
		a.busy = true
		return a.loadTicket(a.location.Param("ticketId"))

	case ScreenAdminFlights:
		a.busy = true
		return a.loadFlights()

	case ScreenAdminNewFlight:
		return a.openForm(forms.FlightForm(&a.flight), a.createFlight)

	case ScreenAdminSchedule:
		return a.openForm(forms.ScheduleForm(&a.schedule, a.now), a.createSchedule)

	case ScreenHealth:
		a.busy = true
		return a.loadHealth()
	}
	return nil
}

func (a *App) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		a.results = nil
		a.err = nil
		return a, a.openForm(forms.SearchFlights(&a.search, a.now), a.searchFlights)
	case "enter":
		if i := a.table.Cursor(); i >= 0 && i < len(a.results) {
			return a, a.goTo("/booking/" + a.results[i].ScheduleID)
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a *App) updateBookings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		a.busy = true
		return a, a.loadBookings()
	case "enter":
		if i := a.table.Cursor(); i >= 0 && i < len(a.bookings) && len(a.bookings[i].Tickets) > 0 {
			return a, a.goTo("/ticket/" + a.bookings[i].Tickets[0].TicketID)
		}
		return a, nil
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

func (a *App) updateFlights(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "n":
		return a, a.goTo(router.PathAdminNewFlight)
	case "s":
		if i := a.table.Cursor(); i >= 0 && i < len(a.flights) {
			a.schedule = forms.Schedule{FlightNumber: a.flights[i].FlightNumber}
		}
		return a, a.goTo(router.PathAdminSchedule)
	case "r":
		a.busy = true
		return a, a.loadFlights()
	}
	var cmd tea.Cmd
	a.table, cmd = a.table.Update(msg)
	return a, cmd
}

// viewScreen renders the current screen when no form is active
func (a *App) viewScreen() string {
	switch a.screen {
	case ScreenHome:
		return a.menu.View()
	case ScreenSearch:
		return a.viewResults()
	case ScreenBookings:
		if len(a.bookings) == 0 {
			return styles.Subtitle.Render("You have no bookings yet.")
		}
		return styles.Title.Render(icons.Booking.String()+" My bookings") + "\n" + a.table.View()
	case ScreenTicket:
		return a.viewTicket()
	case ScreenAdminFlights:
		if len(a.flights) == 0 {
			return styles.Subtitle.Render("No flights registered. Press n to create one.")
		}
		return styles.Title.Render(icons.Admin.String()+" Flights") + "\n" + a.table.View()
	case ScreenProfile:
		return a.viewProfile()
	case ScreenHealth:
		return a.viewHealth()
	case ScreenBooking:
		return styles.Subtitle.Render("The flight could not be loaded. Press r to retry.")
	}
	return ""
}

func (a *App) viewResults() string {
	route := fmt.Sprintf("%s → %s on %s", a.search.From, a.search.To, a.search.Date)
	if len(a.results) == 0 {
		return styles.Subtitle.Render("No flights found for " + route + ". Press s to search again.")
	}
	title := fmt.Sprintf("%s %d flights %s", icons.Plane.String(), len(a.results), route)
	return styles.Title.Render(title) + "\n" + a.table.View()
}

// field renders one "Label: value" line
func field(label, value string) string {
	return lipgloss.NewStyle().Foreground(styles.Muted).Width(12).Render(label+":") + styles.ValueStyle.Render(value)
}

func (a *App) viewTicket() string {
	t := a.ticket
	if t == nil {
		return styles.Subtitle.Render("Ticket not available.")
	}

	lines := []string{
		styles.Title.Render(icons.Ticket.String()+" Ticket "+t.TicketID) + "  " + widgets.StatusBadge(t.Status),
		field("PNR", t.PNR),
		field("Passenger", passengerLabel(t)),
		field("Seat", t.SeatNumber),
	}
	if t.MealOption != "" {
		lines = append(lines, field("Meal", t.MealOption))
	}

	if s := a.ticketSchedule; s != nil {
		lines = append(lines,
			field("Flight", s.FlightNumber+" "+s.Airline),
			field("Route", fmt.Sprintf("%s %s → %s %s", s.OriginAirport, validate.AirportName(s.OriginAirport), s.DestinationAirport, validate.AirportName(s.DestinationAirport))),
			field("Departure", s.FlightDate+" "+s.DepartureTime),
			field("Arrival", s.ArrivalTime),
		)
	} else {
		lines = append(lines, "", widgets.StatusText("Flight details unavailable", widgets.StatusWarning))
	}
	return styles.ActivePanel.Render(strings.Join(lines, "\n"))
}

func passengerLabel(t *client.Ticket) string {
	var details []string
	if t.Gender != "" {
		details = append(details, t.Gender)
	}
	if t.Age > 0 {
		details = append(details, strconv.Itoa(t.Age))
	}
	if len(details) == 0 {
		return t.PassengerName
	}
	return fmt.Sprintf("%s (%s)", t.PassengerName, strings.Join(details, ", "))
}

func (a *App) viewProfile() string {
	s := a.session
	if s == nil {
		return styles.Subtitle.Render("Not signed in.")
	}
	lines := []string{
		styles.Title.Render(icons.User.String()+" "+s.Username) + "  " + widgets.RoleBadge(s),
		field("Email", s.Email),
		field("Roles", strings.Join(s.Roles, ", ")),
	}
	if exp := s.ExpiresAt(); !exp.IsZero() {
		lines = append(lines, field("Expires", exp.Local().Format("2006-01-02 15:04")))
	}
	return styles.ActivePanel.Render(strings.Join(lines, "\n"))
}

func (a *App) viewHealth() string {
	h := a.health
	if h == nil {
		return styles.Subtitle.Render("Health unavailable. Press r to retry.")
	}
	lines := []string{
		styles.Title.Render("Backend") + "  " + widgets.StatusBadge(h.Status),
		field("API", a.client.BaseURL()),
	}
	for _, name := range slices.Sorted(maps.Keys(h.Components)) {
		status := h.Components[name].Status
		lines = append(lines, field(name, widgets.StatusText(status, widgets.LevelForStatus(status))))
	}
	return styles.Panel.Render(strings.Join(lines, "\n"))
}

func newTable(columns []table.Column, rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Foreground(styles.Accent).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.Text).
		Background(styles.Surface).
		Bold(true)
	t.SetStyles(s)
	return t
}

var searchColumns = []table.Column{
	{Title: "Flight", Width: 8},
	{Title: "Airline", Width: 10},
	{Title: "Route", Width: 10},
	{Title: "Departs", Width: 7},
	{Title: "Arrives", Width: 7},
	{Title: "Seats", Width: 6},
	{Title: "Fare", Width: 10},
}

func searchRows(results []client.FlightSchedule) []table.Row {
	rows := make([]table.Row, 0, len(results))
	for _, s := range results {
		rows = append(rows, table.Row{
			s.FlightNumber,
			s.Airline,
			s.OriginAirport + "-" + s.DestinationAirport,
			s.DepartureTime,
			s.ArrivalTime,
			strconv.Itoa(s.AvailableSeats),
			fmt.Sprintf("%.2f", s.Fare),
		})
	}
	return rows
}

var bookingColumns = []table.Column{
	{Title: "PNR", Width: 10},
	{Title: "Flight", Width: 8},
	{Title: "Status", Width: 11},
	{Title: "Pax", Width: 4},
	{Title: "Fare", Width: 10},
	{Title: "Booked", Width: 20},
}

func bookingRows(bookings []client.Booking) []table.Row {
	rows := make([]table.Row, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, table.Row{
			b.PNR,
			b.FlightNumber,
			b.Status,
			strconv.Itoa(len(b.Tickets)),
			fmt.Sprintf("%.2f", b.TotalFare),
			b.BookedAt,
		})
	}
	return rows
}

var flightColumns = []table.Column{
	{Title: "Flight", Width: 8},
	{Title: "Airline", Width: 10},
	{Title: "From", Width: 6},
	{Title: "To", Width: 6},
	{Title: "Seats", Width: 6},
}

func flightRows(flights []client.FlightResponse) []table.Row {
	rows := make([]table.Row, 0, len(flights))
	for _, f := range flights {
		rows = append(rows, table.Row{
			f.FlightNumber,
			f.Airline,
			f.OriginAirport,
			f.DestinationAirport,
			strconv.Itoa(f.SeatCapacity),
		})
	}
	return rows
}
