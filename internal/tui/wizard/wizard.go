// ABOUTME: Booking wizard as a bubbletea model
// ABOUTME: Collects contact, passengers, and confirmation with a step progress indicator

package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
	"github.com/flightdesk/flightdesk/internal/tui/icons"
	"github.com/flightdesk/flightdesk/internal/tui/styles"
	"github.com/flightdesk/flightdesk/internal/tui/widgets"
)

// CompleteMsg is sent when the user confirms the booking
type CompleteMsg struct {
	ScheduleID string
	Request    client.BookingCreateRequest
}

// CancelledMsg is sent when the wizard is cancelled
type CancelledMsg struct{}

// Step names for progress indicator
var stepNames = []string{"Contact", "Passengers", "Confirm"}

const (
	stepContact = iota + 1
	stepPassengers
	stepConfirm
)

// Wizard manages the booking flow for one schedule
type Wizard struct {
	schedule *client.FlightSchedule
	form     *huh.Form
	step     int
	width    int

	contact    forms.Contact
	passengers []forms.Passenger
	current    int
	confirmed  bool
	request    client.BookingCreateRequest
	err        error
}

// New creates a wizard for schedule, prefilling the contact email
func New(schedule *client.FlightSchedule, email string) *Wizard {
	w := &Wizard{
		schedule: schedule,
		step:     stepContact,
		contact:  forms.Contact{Email: email},
	}
	w.form = forms.ContactForm(&w.contact)
	return w
}

// Init implements tea.Model
func (w *Wizard) Init() tea.Cmd {
	return w.form.Init()
}

// Update implements tea.Model
func (w *Wizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		form, cmd := w.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			w.form = f
		}
		return w, cmd

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return w, func() tea.Msg { return CancelledMsg{} }
		}
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		return w.advanceStep()
	}

	return w, cmd
}

func (w *Wizard) advanceStep() (tea.Model, tea.Cmd) {
	switch w.step {
	case stepContact:
		// The slice is never resized afterwards: forms hold pointers into it
		w.passengers = make([]forms.Passenger, w.contact.Count())
		w.current = 0
		w.step = stepPassengers
		w.form = w.passengerForm()
		return w, w.form.Init()

	case stepPassengers:
		w.current++
		if w.current < len(w.passengers) {
			w.form = w.passengerForm()
			return w, w.form.Init()
		}

		req, err := forms.BookingRequest(w.contact, w.passengers)
		if err != nil {
			w.err = err
			w.current = 0
			w.form = w.passengerForm()
			return w, w.form.Init()
		}
		w.err = nil
		w.request = req
		w.step = stepConfirm
		w.confirmed = true
		w.form = w.confirmForm()
		return w, w.form.Init()

	case stepConfirm:
		if !w.confirmed {
			return w, func() tea.Msg { return CancelledMsg{} }
		}
		scheduleID := ""
		if w.schedule != nil {
			scheduleID = w.schedule.ScheduleID
		}
		req := w.request
		return w, func() tea.Msg {
			return CompleteMsg{ScheduleID: scheduleID, Request: req}
		}
	}

	return w, nil
}

func (w *Wizard) passengerForm() *huh.Form {
	return forms.PassengerForm(&w.passengers[w.current], w.current+1, len(w.passengers))
}

func (w *Wizard) confirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Review").
				Description(w.Summary()),
			huh.NewConfirm().
				Title("Confirm booking?").
				Affirmative("Book").
				Negative("Cancel").
				Value(&w.confirmed),
		).Title("Step 3: Confirm"),
	).WithTheme(forms.Theme())
}

// Summary describes the pending booking
func (w *Wizard) Summary() string {
	var sb strings.Builder
	if s := w.schedule; s != nil {
		fmt.Fprintf(&sb, "%s %s → %s on %s %s\n", s.FlightNumber, s.OriginAirport, s.DestinationAirport, s.FlightDate, s.DepartureTime)
	}
	fmt.Fprintf(&sb, "Contact: %s\n", w.request.ContactEmail)
	for i, p := range w.request.Passengers {
		fmt.Fprintf(&sb, "%d. %s (%s, %d) seat %s, %s\n", i+1, p.FullName, p.Gender, p.Age, p.SeatNumber, p.MealOption)
	}
	fmt.Fprintf(&sb, "Total fare: %.2f", w.TotalFare())
	return sb.String()
}

// TotalFare is the schedule fare times the number of passengers
func (w *Wizard) TotalFare() float64 {
	if w.schedule == nil {
		return 0
	}
	return w.schedule.Fare * float64(len(w.request.Passengers))
}

// SetWidth sets the wizard width for proper rendering
func (w *Wizard) SetWidth(width int) {
	w.width = width
}

// View implements tea.Model
func (w *Wizard) View() string {
	var sb strings.Builder

	sb.WriteString(w.renderProgress())
	sb.WriteString("\n")
	if s := w.schedule; s != nil {
		fmt.Fprintf(&sb, "%s %s  %s → %s  %s %s\n", icons.Plane.String(), s.FlightNumber, s.OriginAirport, s.DestinationAirport, s.FlightDate, s.DepartureTime)
		sb.WriteString(widgets.SeatsBar(s.AvailableSeats, s.TotalSeats, 20))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if w.err != nil {
		sb.WriteString(styles.ErrorText.Render(icons.Critical.String() + " " + w.err.Error()))
		sb.WriteString("\n\n")
	}

	sb.WriteString(w.form.View())
	return sb.String()
}

// renderProgress renders the step progress indicator
func (w *Wizard) renderProgress() string {
	width := max(w.width-1, 60)

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		switch {
		case stepNum < w.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		case stepNum == w.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		default:
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		if stepNum == stepPassengers && w.step == stepPassengers && len(w.passengers) > 1 {
			name = fmt.Sprintf("%s %d/%d", name, w.current+1, len(w.passengers))
		}
		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}

	stepsLine := strings.Join(steps, "    ")

	// "│  " + bar + " │" = 5 chars overhead
	barWidth := width - 5
	filledWidth := (w.step * barWidth) / len(stepNames)
	emptyWidth := barWidth - filledWidth

	filledBar := lipgloss.NewStyle().Foreground(styles.Primary).Render(strings.Repeat("━", filledWidth))
	emptyBar := lipgloss.NewStyle().Foreground(styles.Surface).Render(strings.Repeat("─", emptyWidth))

	title := "Booking"
	topFillWidth := max(0, width-5-lipgloss.Width(title))
	topBorder := "┌─ " + titleStyle.Render(title) + " " + strings.Repeat("─", topFillWidth) + "┐"

	stepsPadding := max(0, width-4-lipgloss.Width(stepsLine))
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", stepsPadding) + " │"
	progressLinePadded := "│  " + filledBar + emptyBar + " │"
	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLinePadded,
		bottomBorder,
	}, "\n"))
}

// Step returns the current step, starting at 1
func (w *Wizard) Step() int {
	return w.step
}

// Request returns the booking built from the collected input
func (w *Wizard) Request() client.BookingCreateRequest {
	return w.request
}

// Run collects the booking with blocking forms, for use outside a bubbletea
// program
func (w *Wizard) Run() (client.BookingCreateRequest, error) {
	if err := forms.ContactForm(&w.contact).Run(); err != nil {
		return client.BookingCreateRequest{}, err
	}

	w.passengers = make([]forms.Passenger, w.contact.Count())
	for i := range w.passengers {
		if err := forms.PassengerForm(&w.passengers[i], i+1, len(w.passengers)).Run(); err != nil {
			return client.BookingCreateRequest{}, err
		}
	}

	req, err := forms.BookingRequest(w.contact, w.passengers)
	if err != nil {
		return client.BookingCreateRequest{}, err
	}
	w.request = req

	w.confirmed = true
	if err := w.confirmForm().Run(); err != nil {
		return client.BookingCreateRequest{}, err
	}
	if !w.confirmed {
		return client.BookingCreateRequest{}, huh.ErrUserAborted
	}
	return req, nil
}
