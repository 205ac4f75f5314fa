// ABOUTME: Form values and huh form builders for account, search, booking, and admin input
// ABOUTME: The CLI runs these forms directly, the TUI embeds them in screens

package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/validate"
)

// MaxPassengers bounds a single booking
const MaxPassengers = 9

// Credentials is the sign-in input
type Credentials struct {
	Username string
	Password string
}

// Login builds the sign-in form. Password rules are not applied here: the
// server decides whether the credentials are valid.
func Login(c *Credentials) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&c.Username).
				Validate(validate.Required("username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&c.Password).
				Validate(validate.Required("password")),
		).Title("Sign in"),
	).WithTheme(Theme())
}

// Registration is the sign-up input
type Registration struct {
	Username string
	Email    string
	Password string
	Confirm  string
	Admin    bool
}

// Register builds the sign-up form
func Register(r *Registration) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&r.Username).Validate(validate.Username),
			huh.NewInput().Title("Email").Value(&r.Email).Validate(validate.Email),
			huh.NewInput().
				Title("Password").
				Description("8+ characters with upper, lower, digit and special character").
				EchoMode(huh.EchoModePassword).
				Value(&r.Password).
				Validate(validate.Password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&r.Confirm).
				Validate(validate.Matches(&r.Password)),
		).Title("Create account"),
	).WithTheme(Theme())
}

// Request validates the input and builds the sign-up payload
func (r Registration) Request() (client.SignUpRequest, error) {
	err := errors.Join(
		validate.Username(r.Username),
		validate.Email(r.Email),
		validate.Password(r.Password),
		validate.Matches(&r.Password)(r.Confirm),
	)
	if err != nil {
		return client.SignUpRequest{}, err
	}

	req := client.SignUpRequest{
		Username: strings.TrimSpace(r.Username),
		Email:    r.Email,
		Password: r.Password,
	}
	if r.Admin {
		req.Roles = []string{"admin"}
	}
	return req, nil
}

// PasswordChange is the change-password input
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

// ChangePassword builds the change-password form
func ChangePassword(p *PasswordChange) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Current password").
				EchoMode(huh.EchoModePassword).
				Value(&p.Current).
				Validate(validate.Required("current password")),
			newPasswordInput(&p.New),
			confirmInput(&p.Confirm, &p.New),
		).Title("Change password"),
	).WithTheme(Theme())
}

// Validate checks the change-password input
func (p PasswordChange) Validate() error {
	return errors.Join(
		validate.Required("current password")(p.Current),
		validate.Password(p.New),
		validate.Matches(&p.New)(p.Confirm),
	)
}

// PasswordReset is the reset-password input
type PasswordReset struct {
	Token   string
	New     string
	Confirm string
}

// ResetPassword builds the reset-password form
func ResetPassword(p *PasswordReset) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Reset token").
				Description("From the reset link in your email").
				Value(&p.Token).
				Validate(validate.Required("reset token")),
			newPasswordInput(&p.New),
			confirmInput(&p.Confirm, &p.New),
		).Title("Reset password"),
	).WithTheme(Theme())
}

// Validate checks the reset-password input
func (p PasswordReset) Validate() error {
	return errors.Join(
		validate.Required("reset token")(p.Token),
		validate.Password(p.New),
		validate.Matches(&p.New)(p.Confirm),
	)
}

// ForgotPassword builds the reset-request form
func ForgotPassword(email *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(email).Validate(validate.Email),
		).Title("Forgot password").
			Description("We'll email you a link to reset your password"),
	).WithTheme(Theme())
}

func newPasswordInput(value *string) *huh.Input {
	return huh.NewInput().
		Title("New password").
		Description("8+ characters with upper, lower, digit and special character").
		EchoMode(huh.EchoModePassword).
		Value(value).
		Validate(validate.Password)
}

func confirmInput(value, other *string) *huh.Input {
	return huh.NewInput().
		Title("Confirm new password").
		EchoMode(huh.EchoModePassword).
		Value(value).
		Validate(validate.Matches(other))
}

// Search is the flight search input
type Search struct {
	From string
	To   string
	Date string
}

// airportOptions lists the served airports as select options
func airportOptions() []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(validate.Airports))
	for _, a := range validate.Airports {
		options = append(options, huh.NewOption(fmt.Sprintf("%s  %s", a.Code, a.Name), a.Code))
	}
	return options
}

// SearchFlights builds the search form
func SearchFlights(s *Search, now func() time.Time) *huh.Form {
	if s.Date == "" {
		s.Date = now().Format(validate.DateLayout)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("From").
				Options(airportOptions()...).
				Value(&s.From),
			huh.NewSelect[string]().
				Title("To").
				Options(airportOptions()...).
				Value(&s.To).
				Validate(validate.DifferentFrom(&s.From)),
			huh.NewInput().
				Title("Date").
				Placeholder(validate.DateLayout).
				Value(&s.Date).
				Validate(validate.NotPast(now)),
		).Title("Search flights"),
	).WithTheme(Theme())
}

// Request validates the input and builds the search payload
func (s Search) Request(now func() time.Time) (client.FlightSearchRequest, error) {
	err := errors.Join(
		validate.AirportCode(s.From),
		validate.AirportCode(s.To),
		validate.DifferentFrom(&s.From)(s.To),
		validate.NotPast(now)(s.Date),
	)
	if err != nil {
		return client.FlightSearchRequest{}, err
	}
	return client.FlightSearchRequest{
		OriginAirport:      strings.ToUpper(strings.TrimSpace(s.From)),
		DestinationAirport: strings.ToUpper(strings.TrimSpace(s.To)),
		FlightDate:         s.Date,
	}, nil
}

// Contact is the first booking step
type Contact struct {
	Email      string
	Passengers string
}

// ContactForm builds the contact step
func ContactForm(c *Contact) *huh.Form {
	if c.Passengers == "" {
		c.Passengers = "1"
	}
	counts := make([]huh.Option[string], 0, MaxPassengers)
	for i := 1; i <= MaxPassengers; i++ {
		counts = append(counts, huh.NewOption(strconv.Itoa(i), strconv.Itoa(i)))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Contact email").
				Description("Tickets are sent to this address").
				Value(&c.Email).
				Validate(validate.Email),
			huh.NewSelect[string]().
				Title("Passengers").
				Options(counts...).
				Value(&c.Passengers),
		).Title("Contact"),
	).WithTheme(Theme())
}

// Count returns the number of passengers, at least 1
func (c Contact) Count() int {
	n, err := strconv.Atoi(c.Passengers)
	if err != nil || n < 1 {
		return 1
	}
	return min(n, MaxPassengers)
}

// Passenger is one traveller's input
type Passenger struct {
	FullName string
	Gender   string
	Age      string
	Seat     string
	Meal     string
}

// ParsePassenger reads "Full Name,GENDER,AGE,SEAT[,MEAL]"
func ParsePassenger(s string) (Passenger, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 4 || len(parts) > 5 {
		return Passenger{}, fmt.Errorf("passenger %q must be name,gender,age,seat[,meal]", s)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	p := Passenger{FullName: parts[0], Gender: parts[1], Age: parts[2], Seat: parts[3], Meal: "VEG"}
	if len(parts) == 5 {
		p.Meal = parts[4]
	}
	return p, nil
}

// PassengerForm builds the form for passenger index (1-based) of total
func PassengerForm(p *Passenger, index, total int) *huh.Form {
	if p.Gender == "" {
		p.Gender = validate.Genders[0]
	}
	if p.Meal == "" {
		p.Meal = validate.MealOptions[0]
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Full name").Value(&p.FullName).Validate(validate.Required("full name")),
			huh.NewSelect[string]().
				Title("Gender").
				Options(huh.NewOptions(validate.Genders...)...).
				Value(&p.Gender),
			huh.NewInput().Title("Age").CharLimit(3).Value(&p.Age).Validate(validate.Age),
			huh.NewInput().Title("Seat").Placeholder("12A").CharLimit(4).Value(&p.Seat).Validate(validate.SeatNumber),
			huh.NewSelect[string]().
				Title("Meal").
				Options(huh.NewOptions(validate.MealOptions...)...).
				Value(&p.Meal),
		).Title(fmt.Sprintf("Passenger %d of %d", index, total)),
	).WithTheme(Theme())
}

// Request validates the input and builds the passenger payload
func (p Passenger) Request() (client.PassengerRequest, error) {
	err := errors.Join(
		validate.Required("full name")(p.FullName),
		validate.OneOf("gender", validate.Genders...)(p.Gender),
		validate.Age(p.Age),
		validate.SeatNumber(p.Seat),
		validate.OneOf("meal", validate.MealOptions...)(p.Meal),
	)
	if err != nil {
		return client.PassengerRequest{}, err
	}
	age, _ := strconv.Atoi(strings.TrimSpace(p.Age))
	return client.PassengerRequest{
		FullName:   strings.TrimSpace(p.FullName),
		Gender:     strings.ToUpper(p.Gender),
		Age:        age,
		SeatNumber: strings.ToUpper(strings.TrimSpace(p.Seat)),
		MealOption: strings.ToUpper(p.Meal),
	}, nil
}

// BookingRequest validates contact and passengers and builds the booking
// payload. Seats must be unique within the booking.
func BookingRequest(c Contact, passengers []Passenger) (client.BookingCreateRequest, error) {
	if err := validate.Email(c.Email); err != nil {
		return client.BookingCreateRequest{}, err
	}
	if len(passengers) == 0 {
		return client.BookingCreateRequest{}, errors.New("at least one passenger is required")
	}
	if len(passengers) > MaxPassengers {
		return client.BookingCreateRequest{}, fmt.Errorf("at most %d passengers per booking", MaxPassengers)
	}

	req := client.BookingCreateRequest{ContactEmail: c.Email}
	seats := make(map[string]bool, len(passengers))
	for i, p := range passengers {
		pr, err := p.Request()
		if err != nil {
			return client.BookingCreateRequest{}, fmt.Errorf("passenger %d: %w", i+1, err)
		}
		if seats[pr.SeatNumber] {
			return client.BookingCreateRequest{}, fmt.Errorf("passenger %d: seat %s is already taken in this booking", i+1, pr.SeatNumber)
		}
		seats[pr.SeatNumber] = true
		req.Passengers = append(req.Passengers, pr)
	}
	return req, nil
}

// Flight is the create-flight input
type Flight struct {
	Number      string
	Airline     string
	Origin      string
	Destination string
	Capacity    string
}

// FlightForm builds the create-flight form
func FlightForm(f *Flight) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Flight number").Placeholder("AI101").Value(&f.Number).Validate(validate.FlightNumber),
			huh.NewSelect[string]().
				Title("Airline").
				Options(huh.NewOptions(validate.Airlines...)...).
				Value(&f.Airline),
			huh.NewSelect[string]().Title("Origin").Options(airportOptions()...).Value(&f.Origin),
			huh.NewSelect[string]().
				Title("Destination").
				Options(airportOptions()...).
				Value(&f.Destination).
				Validate(validate.DifferentFrom(&f.Origin)),
			huh.NewInput().Title("Seat capacity").CharLimit(4).Value(&f.Capacity).Validate(validate.SeatCapacity),
		).Title("Create flight"),
	).WithTheme(Theme())
}

// Request validates the input and builds the create-flight payload
func (f Flight) Request() (client.FlightCreateRequest, error) {
	err := errors.Join(
		validate.FlightNumber(f.Number),
		validate.Airline(f.Airline),
		validate.AirportCode(f.Origin),
		validate.AirportCode(f.Destination),
		validate.DifferentFrom(&f.Origin)(f.Destination),
		validate.SeatCapacity(f.Capacity),
	)
	if err != nil {
		return client.FlightCreateRequest{}, err
	}
	capacity, _ := strconv.Atoi(strings.TrimSpace(f.Capacity))
	return client.FlightCreateRequest{
		FlightNumber:       strings.ToUpper(strings.TrimSpace(f.Number)),
		Airline:            strings.ToUpper(f.Airline),
		OriginAirport:      strings.ToUpper(strings.TrimSpace(f.Origin)),
		DestinationAirport: strings.ToUpper(strings.TrimSpace(f.Destination)),
		SeatCapacity:       capacity,
	}, nil
}

// Schedule is the create-schedule input
type Schedule struct {
	FlightNumber string
	Date         string
	Departure    string
	Arrival      string
	Fare         string
}

// ScheduleForm builds the create-schedule form
func ScheduleForm(s *Schedule, now func() time.Time) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Flight number").Value(&s.FlightNumber).Validate(validate.FlightNumber),
			huh.NewInput().Title("Date").Placeholder(validate.DateLayout).Value(&s.Date).Validate(validate.NotPast(now)),
			huh.NewInput().Title("Departure").Placeholder("HH:mm").CharLimit(5).Value(&s.Departure).Validate(validate.ClockTime),
			huh.NewInput().Title("Arrival").Placeholder("HH:mm").CharLimit(5).Value(&s.Arrival).Validate(validate.ClockTime),
			huh.NewInput().Title("Fare").Value(&s.Fare).Validate(validate.Fare),
		).Title("Create schedule"),
	).WithTheme(Theme())
}

// Request validates the input and builds the create-schedule payload
func (s Schedule) Request(now func() time.Time) (client.FlightScheduleCreateRequest, error) {
	err := errors.Join(
		validate.FlightNumber(s.FlightNumber),
		validate.NotPast(now)(s.Date),
		validate.ClockTime(s.Departure),
		validate.ClockTime(s.Arrival),
		validate.Fare(s.Fare),
	)
	if err != nil {
		return client.FlightScheduleCreateRequest{}, err
	}
	fare, _ := strconv.ParseFloat(strings.TrimSpace(s.Fare), 64)
	return client.FlightScheduleCreateRequest{
		FlightNumber:  strings.ToUpper(strings.TrimSpace(s.FlightNumber)),
		FlightDate:    s.Date,
		DepartureTime: s.Departure,
		ArrivalTime:   s.Arrival,
		Fare:          fare,
	}, nil
}
