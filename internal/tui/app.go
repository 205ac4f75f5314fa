// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Maps router locations to screens and follows session and redirect changes

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/session"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
	"github.com/flightdesk/flightdesk/internal/tui/icons"
	"github.com/flightdesk/flightdesk/internal/tui/menu"
	"github.com/flightdesk/flightdesk/internal/tui/recent"
	"github.com/flightdesk/flightdesk/internal/tui/styles"
	"github.com/flightdesk/flightdesk/internal/tui/widgets"
	"github.com/flightdesk/flightdesk/internal/tui/wizard"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenHome Screen = iota
	ScreenLogin
	ScreenRegister
	ScreenForgotPassword
	ScreenResetPassword
	ScreenChangePassword
	ScreenProfile
	ScreenLogout
	ScreenSearch
	ScreenBooking
	ScreenBookings
	ScreenTicket
	ScreenAdminFlights
	ScreenAdminNewFlight
	ScreenAdminSchedule
	ScreenHealth
)

var screensByRoute = map[string]Screen{
	router.PathRoot:           ScreenHome,
	router.PathHome:           ScreenHome,
	router.PathAdmin:          ScreenAdminFlights,
	router.PathLogin:          ScreenLogin,
	router.PathRegister:       ScreenRegister,
	router.PathForgotPassword: ScreenForgotPassword,
	router.PathResetPassword:  ScreenResetPassword,
	router.PathChangePassword: ScreenChangePassword,
	router.PathProfile:        ScreenProfile,
	router.PathLogout:         ScreenLogout,
	router.PathSearch:         ScreenSearch,
	router.PathBooking:        ScreenBooking,
	router.PathBookings:       ScreenBookings,
	router.PathTicket:         ScreenTicket,
	router.PathAdminFlights:   ScreenAdminFlights,
	router.PathAdminNewFlight: ScreenAdminNewFlight,
	router.PathAdminSchedule:  ScreenAdminSchedule,
	router.PathHealth:         ScreenHealth,
}

func screenFor(loc router.Location) Screen {
	if loc.Route == nil {
		return ScreenHome
	}
	return screensByRoute[loc.Route.Path]
}

const minTerminalWidth = 80

// App is the root model for the TUI
type App struct {
	ctx    context.Context
	client *client.Client
	store  *session.Store
	router *router.Router
	now    func() time.Time

	screen   Screen
	location router.Location
	session  *session.Session
	width    int
	height   int

	navigating bool
	busy       bool
	notice     string
	err        error
	lastUpdate time.Time

	// Child models
	menu    *menu.Menu
	form    *huh.Form
	submit  func() tea.Cmd
	table   table.Model
	wizard  *wizard.Wizard
	spinner spinner.Model

	// Form values
	credentials    forms.Credentials
	registration   forms.Registration
	passwordChange forms.PasswordChange
	passwordReset  forms.PasswordReset
	resetEmail     string
	search         forms.Search
	flight         forms.Flight
	schedule       forms.Schedule

	// Loaded data
	results        []client.FlightSchedule
	bookings       []client.Booking
	ticket         *client.Ticket
	ticketSchedule *client.FlightSchedule
	flights        []client.FlightResponse
	health         *client.HealthResponse

	// Remembered searches, nil when not configured
	recent *recent.Searches
}

// Option configures an App
type Option func(*App)

// WithRecentSearches prefills the search form from, and records searches to, r
func WithRecentSearches(r *recent.Searches) Option {
	return func(a *App) {
		a.recent = r
	}
}

// New creates a new TUI application. The router must have been built with
// the client's store and the client as validator.
func New(ctx context.Context, apiClient *client.Client, r *router.Router, opts ...Option) *App {
	store := apiClient.Store()
	current := store.Current()
	a := &App{
		ctx:     ctx,
		client:  apiClient,
		store:   store,
		router:  r,
		now:     time.Now,
		session: current,
		menu:    menu.New(current),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.Primary))),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.navigate(router.PathHome))
}

// navigate resolves target through the router's guards off the event loop
func (a *App) navigate(target string) tea.Cmd {
	a.navigating = true
	a.busy = true
	ctx, r := a.ctx, a.router
	return func() tea.Msg {
		loc, err := r.Navigate(ctx, target)
		return navigatedMsg{loc: loc, err: err}
	}
}

// goTo is a user-initiated navigation: it drops the previous notice and error
func (a *App) goTo(target string) tea.Cmd {
	a.notice = ""
	a.err = nil
	return a.navigate(target)
}

// guarded reports whether the current route has guards
func (a *App) guarded() bool {
	return a.location.Route != nil && len(a.location.Route.Guards) > 0
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if len(a.table.Rows()) > 0 {
			a.table.SetHeight(a.tableHeight())
		}
		if a.wizard != nil {
			a.wizard.SetWidth(a.width - 1)
		}
		return a.forward(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case navigatedMsg:
		a.navigating = false
		a.busy = false
		if msg.err != nil {
			slog.Warn("Navigation failed", "error", msg.err)
			a.err = msg.err
			return a, nil
		}
		if msg.loc.Redirected && msg.loc.Reason != "" {
			a.notice = reasonNotice(msg.loc.Reason)
		}
		if msg.loc.Route == nil {
			// A guard kept us where we were
			return a, nil
		}
		a.location = msg.loc
		return a, a.enter()

	case locationChangedMsg:
		// Our own navigations report their change too; only outside
		// redirects (the interceptor after a 401) need following
		if a.navigating || msg.location == a.location.String() {
			return a, nil
		}
		return a, a.navigate(msg.location)

	case sessionChangedMsg:
		a.session = msg.session
		if a.screen == ScreenHome {
			a.menu = menu.New(a.session)
		}
		if msg.session == nil && a.guarded() && !a.navigating {
			a.notice = "Your session has ended. Please sign in again."
			return a, a.navigate(a.location.String())
		}
		return a, nil

	case menu.SelectedMsg:
		return a, a.goTo(msg.Route)

	case wizard.CompleteMsg:
		a.wizard = nil
		a.busy = true
		return a, a.book(msg)

	case wizard.CancelledMsg:
		a.wizard = nil
		return a, a.goTo(router.PathSearch)

	case resultMsg:
		a.busy = false
		if msg.err != nil {
			a.err = msg.err
			return a, a.enter()
		}
		a.clearSecrets()
		a.err = nil
		a.notice = msg.notice
		if msg.next != "" {
			return a, a.navigate(msg.next)
		}
		return a, nil

	case searchResultsMsg:
		a.busy = false
		if msg.err != nil {
			a.err = msg.err
			return a, a.openForm(forms.SearchFlights(&a.search, a.now), a.searchFlights)
		}
		a.results = msg.results
		a.lastUpdate = a.now()
		if a.recent != nil {
			search := recent.Search{From: a.search.From, To: a.search.To, Date: a.search.Date}
			if err := a.recent.Add(search); err != nil {
				slog.Warn("Failed to save recent search", "error", err)
			}
		}
		a.table = newTable(searchColumns, searchRows(a.results), a.tableHeight())
		return a, nil

	case scheduleMsg:
		a.busy = false
		if msg.err != nil {
			a.err = msg.err
			return a, nil
		}
		email := ""
		if a.session != nil {
			email = a.session.Email
		}
		a.wizard = wizard.New(msg.schedule, email)
		a.wizard.SetWidth(a.width - 1)
		return a, a.wizard.Init()

	case bookingsMsg:
		a.busy = false
		a.err = msg.err
		a.bookings = msg.bookings
		a.lastUpdate = a.now()
		a.table = newTable(bookingColumns, bookingRows(a.bookings), a.tableHeight())
		return a, nil

	case ticketMsg:
		a.busy = false
		a.err = msg.err
		a.ticket = msg.ticket
		a.ticketSchedule = msg.schedule
		a.lastUpdate = a.now()
		return a, nil

	case flightsMsg:
		a.busy = false
		a.err = msg.err
		a.flights = msg.flights
		a.lastUpdate = a.now()
		a.table = newTable(flightColumns, flightRows(a.flights), a.tableHeight())
		return a, nil

	case healthMsg:
		a.busy = false
		a.err = msg.err
		a.health = msg.health
		a.lastUpdate = a.now()
		return a, nil
	}

	// Forward everything else to the active form or wizard (huh internals)
	return a.forward(msg)
}

func (a *App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch {
	case a.wizard != nil:
		model, cmd := a.wizard.Update(msg)
		a.wizard = model.(*wizard.Wizard)
		return a, cmd
	case a.form != nil:
		return a.updateForm(msg)
	}
	return a, nil
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := a.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		submit := a.submit
		a.form = nil
		a.busy = true
		return a, submit()
	case huh.StateAborted:
		a.form = nil
		return a, a.goTo(router.PathHome)
	}
	return a, cmd
}

// openForm makes form the active input; submit runs once it completes
func (a *App) openForm(form *huh.Form, submit func() tea.Cmd) tea.Cmd {
	a.form = form
	a.submit = submit
	return form.Init()
}

// clearSecrets drops password input after a successful submission
func (a *App) clearSecrets() {
	a.credentials.Password = ""
	a.registration = forms.Registration{}
	a.passwordChange = forms.PasswordChange{}
	a.passwordReset = forms.PasswordReset{}
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.wizard != nil || a.form != nil {
		if msg.String() == "esc" && a.form != nil {
			a.form = nil
			return a, a.goTo(router.PathHome)
		}
		return a.forward(msg)
	}

	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "esc", "h":
		if a.screen != ScreenHome {
			return a, a.goTo(router.PathHome)
		}
		return a, nil
	}
	if a.busy {
		return a, nil
	}

	switch a.screen {
	case ScreenHome:
		model, cmd := a.menu.Update(msg)
		a.menu = model.(*menu.Menu)
		return a, cmd
	case ScreenSearch:
		return a.updateResults(msg)
	case ScreenBookings:
		return a.updateBookings(msg)
	case ScreenAdminFlights:
		return a.updateFlights(msg)
	case ScreenProfile:
		switch msg.String() {
		case "p":
			return a, a.goTo(router.PathChangePassword)
		case "o":
			return a, a.goTo(router.PathLogout)
		}
	case ScreenTicket:
		if msg.String() == "b" {
			return a, a.goTo(router.PathBookings)
		}
	case ScreenBooking:
		if msg.String() == "r" {
			return a, a.goTo(a.location.String())
		}
	case ScreenHealth:
		if msg.String() == "r" {
			a.busy = true
			return a, a.loadHealth()
		}
	}
	return a, nil
}

// reasonNotice turns a guard denial reason into user-facing text
func reasonNotice(reason string) string {
	switch reason {
	case "not signed in":
		return "Please sign in to continue."
	case "session expired":
		return "Your session has expired. Please sign in again."
	case "insufficient permissions":
		return "You don't have permission to view that page."
	default:
		return reason
	}
}

// View implements tea.Model
func (a *App) View() string {
	var sb strings.Builder

	if a.notice != "" {
		sb.WriteString(widgets.StatusText(a.notice, widgets.StatusInfo))
		sb.WriteString("\n")
	}
	if a.err != nil {
		sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " " + client.Message(a.err)))
		sb.WriteString("\n")
	}
	if a.notice != "" || a.err != nil {
		sb.WriteString("\n")
	}

	switch {
	case a.busy:
		sb.WriteString(a.spinner.View() + " Loading...")
	case a.wizard != nil:
		sb.WriteString(a.wizard.View())
	case a.form != nil:
		sb.WriteString(a.form.View())
	default:
		sb.WriteString(a.viewScreen())
	}

	return a.wrapWithFrame(sb.String())
}

func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

func (a *App) tableHeight() int {
	return max(a.height-10, 5)
}

// title returns the current route's title
func (a *App) title() string {
	if a.location.Route != nil && a.location.Route.Title != "" {
		return a.location.Route.Title
	}
	return "Home"
}

// renderHeader creates the header bar with app branding and the signed-in user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s %s ", icons.App.String(), titleStyle.Render("FlightDesk"), contextStyle.Render(a.title()))

	rightText := " " + lipgloss.NewStyle().Foreground(styles.Muted).Render("signed out") + " "
	if a.session != nil {
		rightText = " " + icons.User.String() + " " + contextStyle.Render(a.session.Username) + " " + widgets.RoleBadge(a.session) + " "
	}

	fillWidth := max(0, width-4-lipgloss.Width(leftText)-lipgloss.Width(rightText))
	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"
	return borderStyle.Render(header)
}

// shortcuts lists the keys available on the current screen
func (a *App) shortcuts() []string {
	switch {
	case a.wizard != nil:
		return []string{"↑↓ Select", "Enter Confirm", "Esc Cancel"}
	case a.form != nil:
		return []string{"Tab Next", "Enter Submit", "Esc Home"}
	}

	switch a.screen {
	case ScreenHome:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenSearch:
		return []string{"↑↓ Navigate", "Enter Book", "s Search", "h Home", "q Quit"}
	case ScreenBookings:
		return []string{"↑↓ Navigate", "Enter Ticket", "r Refresh", "h Home", "q Quit"}
	case ScreenAdminFlights:
		return []string{"n New flight", "s New schedule", "r Refresh", "h Home", "q Quit"}
	case ScreenProfile:
		return []string{"p Password", "o Sign out", "h Home", "q Quit"}
	case ScreenTicket:
		return []string{"b Bookings", "h Home", "q Quit"}
	case ScreenHealth:
		return []string{"r Refresh", "h Home", "q Quit"}
	default:
		return []string{"h Home", "q Quit"}
	}
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	shortcuts := a.shortcuts()
	var styled []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styled = append(styled, s)
		}
	}

	leftText := " " + strings.Join(styled, "  ")
	leftPlainText := " " + strings.Join(shortcuts, "  ")

	rightText, rightPlainText := "", ""
	if !a.lastUpdate.IsZero() && a.form == nil && a.wizard == nil {
		elapsed := formatTimeSince(a.now().Sub(a.lastUpdate))
		rightText = statusStyle.Render("Updated "+elapsed) + " "
		rightPlainText = "Updated " + elapsed + " "
	}

	fillWidth := max(0, width-4-lipgloss.Width(leftPlainText)-lipgloss.Width(rightPlainText))
	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"
	return borderStyle.Render(footer)
}

// formatTimeSince formats an elapsed duration in human-readable form
func formatTimeSince(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		if secs < 5 {
			return "just now"
		}
		return fmt.Sprintf("%ds ago", secs)
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	return fmt.Sprintf("%dh ago", int(d.Hours()))
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI. It follows store changes, including a logout made by
// another process, and redirects issued by the request interceptor.
func Run(ctx context.Context, apiClient *client.Client, r *router.Router, opts ...Option) error {
	app := New(ctx, apiClient, r, opts...)

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	unsubscribe := apiClient.Store().Subscribe(func(current *session.Session) {
		p.Send(sessionChangedMsg{session: current})
	})
	defer unsubscribe()

	r.OnChange(func(location string) {
		p.Send(locationChangedMsg{location: location})
	})

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := apiClient.Store().Watch(watchCtx); err != nil {
		slog.Warn("Session file watch unavailable", "error", err)
	}

	_, err := p.Run()
	return err
}
