// ABOUTME: Messages and asynchronous commands for the TUI
// ABOUTME: Each command calls the API client off the event loop and reports back

package tui

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/guard"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/session"
	"github.com/flightdesk/flightdesk/internal/tui/wizard"
)

// navigatedMsg is sent when a router navigation finishes
type navigatedMsg struct {
	loc router.Location
	err error
}

// locationChangedMsg is sent when the router location changes
type locationChangedMsg struct {
	location string
}

// sessionChangedMsg is sent after every applied session write
type sessionChangedMsg struct {
	session *session.Session
}

// resultMsg reports a submitted form. On success the notice is shown and
// navigation continues at next.
type resultMsg struct {
	notice string
	next   string
	err    error
}

type searchResultsMsg struct {
	results []client.FlightSchedule
	err     error
}

type scheduleMsg struct {
	schedule *client.FlightSchedule
	err      error
}

type bookingsMsg struct {
	bookings []client.Booking
	err      error
}

type ticketMsg struct {
	ticket   *client.Ticket
	schedule *client.FlightSchedule
	err      error
}

type flightsMsg struct {
	flights []client.FlightResponse
	err     error
}

type healthMsg struct {
	health *client.HealthResponse
	err    error
}

func failed(err error) tea.Cmd {
	return func() tea.Msg { return resultMsg{err: err} }
}

func (a *App) signIn() tea.Cmd {
	creds := a.credentials
	next := guard.ReturnURL(a.location.String())
	return func() tea.Msg {
		sess, err := a.client.SignIn(a.ctx, creds.Username, creds.Password)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: fmt.Sprintf("Welcome, %s.", sess.Username), next: next}
	}
}

func (a *App) signUp() tea.Cmd {
	req, err := a.registration.Request()
	if err != nil {
		return failed(err)
	}
	return func() tea.Msg {
		ack, err := a.client.SignUp(a.ctx, req)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: ack.Message + " You can sign in now.", next: router.PathLogin}
	}
}

func (a *App) signOut() tea.Cmd {
	return func() tea.Msg {
		ack, err := a.client.SignOut(a.ctx)
		if err != nil {
			// The local session is gone either way
			return resultMsg{notice: "Signed out on this device.", next: router.PathHome}
		}
		return resultMsg{notice: ack.Message, next: router.PathHome}
	}
}

func (a *App) requestReset() tea.Cmd {
	email := a.resetEmail
	return func() tea.Msg {
		ack, err := a.client.RequestPasswordReset(a.ctx, email)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: ack.Message, next: router.PathResetPassword}
	}
}

func (a *App) resetPassword() tea.Cmd {
	p := a.passwordReset
	if err := p.Validate(); err != nil {
		return failed(err)
	}
	return func() tea.Msg {
		ack, err := a.client.ResetPassword(a.ctx, p.Token, p.New, p.Confirm)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: ack.Message, next: router.PathLogin}
	}
}

func (a *App) changePassword() tea.Cmd {
	p := a.passwordChange
	if err := p.Validate(); err != nil {
		return failed(err)
	}
	return func() tea.Msg {
		ack, err := a.client.ChangePassword(a.ctx, p.Current, p.New, p.Confirm)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: ack.Message, next: router.PathProfile}
	}
}

func (a *App) searchFlights() tea.Cmd {
	req, err := a.search.Request(a.now)
	if err != nil {
		return func() tea.Msg { return searchResultsMsg{err: err} }
	}
	return func() tea.Msg {
		results, err := a.client.SearchFlights(a.ctx, req)
		return searchResultsMsg{results: results, err: err}
	}
}

func (a *App) loadSchedule(scheduleID string) tea.Cmd {
	return func() tea.Msg {
		schedule, err := a.client.GetSchedule(a.ctx, scheduleID)
		return scheduleMsg{schedule: schedule, err: err}
	}
}

func (a *App) book(msg wizard.CompleteMsg) tea.Cmd {
	return func() tea.Msg {
		pnr, err := a.client.CreateBooking(a.ctx, msg.ScheduleID, msg.Request)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: "Booking confirmed. PNR: " + pnr, next: router.PathBookings}
	}
}

func (a *App) loadBookings() tea.Cmd {
	return func() tea.Msg {
		bookings, err := a.client.Bookings(a.ctx)
		return bookingsMsg{bookings: bookings, err: err}
	}
}

// loadTicket fetches the ticket, then its schedule. A schedule failure only
// hides the flight details.
func (a *App) loadTicket(ticketID string) tea.Cmd {
	return func() tea.Msg {
		ticket, err := a.client.GetTicket(a.ctx, ticketID)
		if err != nil {
			return ticketMsg{err: err}
		}
		schedule, err := a.client.GetSchedule(a.ctx, ticket.ScheduleID)
		if err != nil {
			slog.Warn("Failed to load ticket schedule", "ticket_id", ticketID, "error", err)
			schedule = nil
		}
		return ticketMsg{ticket: ticket, schedule: schedule}
	}
}

func (a *App) loadFlights() tea.Cmd {
	return func() tea.Msg {
		flights, err := a.client.ListFlights(a.ctx)
		return flightsMsg{flights: flights, err: err}
	}
}

func (a *App) createFlight() tea.Cmd {
	req, err := a.flight.Request()
	if err != nil {
		return failed(err)
	}
	return func() tea.Msg {
		ack, err := a.client.CreateFlight(a.ctx, req)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: ack.Message, next: router.PathAdminFlights}
	}
}

func (a *App) createSchedule() tea.Cmd {
	req, err := a.schedule.Request(a.now)
	if err != nil {
		return failed(err)
	}
	return func() tea.Msg {
		ack, err := a.client.CreateSchedule(a.ctx, req)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{notice: ack.Message, next: router.PathAdminFlights}
	}
}

func (a *App) loadHealth() tea.Cmd {
	return func() tea.Msg {
		health, err := a.client.Health(a.ctx)
		return healthMsg{health: health, err: err}
	}
}
