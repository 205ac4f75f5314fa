// ABOUTME: Input validation for sign-in, booking, and admin forms
// ABOUTME: Each validator has the func(string) error shape huh fields expect

package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Airport is a served airport
type Airport struct {
	Code string
	Name string
}

// Airports lists the airports the booking service flies between
var Airports = []Airport{
	{"DEL", "Delhi"},
	{"HYD", "Hyderabad"},
	{"BLR", "Bengaluru"},
	{"BOM", "Mumbai"},
	{"MAA", "Chennai"},
	{"CCU", "Kolkata"},
	{"GOI", "Goa"},
	{"AMD", "Ahmedabad"},
	{"PNQ", "Pune"},
	{"COK", "Kochi"},
}

// Airlines lists the carriers accepted by the admin API
var Airlines = []string{"AIR_INDIA", "EMIRATES", "INDIGO", "SPICEJET", "VISTARA"}

// Genders and MealOptions are the passenger enumerations
var (
	Genders     = []string{"MALE", "FEMALE", "OTHER"}
	MealOptions = []string{"VEG", "NON_VEG", "VEGAN"}
)

// DateLayout is the ISO date format used by the API
const DateLayout = "2006-01-02"

// TimeLayout is the HH:mm format used for departure and arrival times
const TimeLayout = "15:04"

const passwordSpecials = "!@#$%^&*()_+-=[]{}|;:,.<>?"

var (
	seatPattern         = regexp.MustCompile(`^[0-9]{1,3}[A-Za-z]$`)
	flightNumberPattern = regexp.MustCompile(`^[A-Za-z0-9]{2,10}$`)
)

// Required rejects blank input
func Required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// Username accepts 3 to 20 characters
func Username(s string) error {
	n := len(strings.TrimSpace(s))
	if n < 3 || n > 20 {
		return fmt.Errorf("username must be 3 to 20 characters")
	}
	return nil
}

// Email accepts a bare address
func Email(s string) error {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@"):], ".") {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

// Password requires at least 8 characters with an uppercase letter, a
// lowercase letter, a digit, and a special character
func Password(s string) error {
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if len([]rune(s)) < 8 || !upper || !lower || !digit || !special {
		return fmt.Errorf("password needs 8+ characters with upper, lower, digit and special character")
	}
	return nil
}

// Matches returns a validator that compares against the value behind other
// at validation time
func Matches(other *string) func(string) error {
	return func(s string) error {
		if s != *other {
			return fmt.Errorf("passwords do not match")
		}
		return nil
	}
}

// AirportCode accepts one of the served airports
func AirportCode(s string) error {
	code := strings.ToUpper(strings.TrimSpace(s))
	for _, a := range Airports {
		if a.Code == code {
			return nil
		}
	}
	return fmt.Errorf("unknown airport %q", s)
}

// AirportName returns the city for code, or code itself
func AirportName(code string) string {
	for _, a := range Airports {
		if a.Code == code {
			return a.Name
		}
	}
	return code
}

// DifferentFrom rejects a destination equal to the origin behind other
func DifferentFrom(other *string) func(string) error {
	return func(s string) error {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(*other)) {
			return fmt.Errorf("origin and destination must differ")
		}
		return nil
	}
}

// Airline accepts one of the known carriers
func Airline(s string) error {
	if !slices.Contains(Airlines, strings.ToUpper(s)) {
		return fmt.Errorf("airline must be one of %s", strings.Join(Airlines, ", "))
	}
	return nil
}

// Date accepts yyyy-MM-dd
func Date(s string) error {
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("date must be in yyyy-MM-dd format")
	}
	return nil
}

// NotPast returns a validator accepting dates on or after today
func NotPast(now func() time.Time) func(string) error {
	return func(s string) error {
		d, err := time.Parse(DateLayout, s)
		if err != nil {
			return fmt.Errorf("date must be in yyyy-MM-dd format")
		}
		today := now()
		today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(today) {
			return fmt.Errorf("date cannot be in the past")
		}
		return nil
	}
}

// ClockTime accepts HH:mm
func ClockTime(s string) error {
	if _, err := time.Parse(TimeLayout, s); err != nil || len(s) != 5 {
		return fmt.Errorf("time must be in HH:mm format")
	}
	return nil
}

// Age accepts 1 to 120
func Age(s string) error {
	return intBetween(s, 1, 120, "age")
}

// SeatCapacity accepts 1 to 1000
func SeatCapacity(s string) error {
	return intBetween(s, 1, 1000, "seat capacity")
}

// SeatNumber accepts a row number followed by a seat letter, e.g. 12A
func SeatNumber(s string) error {
	if !seatPattern.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("seat must look like 12A")
	}
	return nil
}

// FlightNumber accepts 2 to 10 letters and digits
func FlightNumber(s string) error {
	if !flightNumberPattern.MatchString(strings.TrimSpace(s)) {
		return fmt.Errorf("flight number must be 2 to 10 letters or digits")
	}
	return nil
}

// Fare accepts an amount of at least 1
func Fare(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 1 {
		return fmt.Errorf("fare must be at least 1")
	}
	return nil
}

// OneOf accepts any of the options, case-insensitively
func OneOf(label string, options ...string) func(string) error {
	return func(s string) error {
		for _, o := range options {
			if strings.EqualFold(o, strings.TrimSpace(s)) {
				return nil
			}
		}
		return fmt.Errorf("%s must be one of %s", label, strings.Join(options, ", "))
	}
}

// PositiveInt accepts whole numbers above zero
func PositiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func intBetween(s string, lo, hi int, label string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < lo || v > hi {
		return fmt.Errorf("%s must be between %d and %d", label, lo, hi)
	}
	return nil
}
