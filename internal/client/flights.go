// ABOUTME: Flight search, booking, ticket, and admin inventory operations
// ABOUTME: Protected calls rely on the interceptor for credentials

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// FlightSearchRequest searches schedules for a route on a date (yyyy-MM-dd)
type FlightSearchRequest struct {
	OriginAirport      string `json:"originAirport"`
	DestinationAirport string `json:"destinationAirport"`
	FlightDate         string `json:"flightDate"`
}

// FlightSchedule is one scheduled departure
type FlightSchedule struct {
	ScheduleID         string  `json:"scheduleId"`
	FlightID           string  `json:"flightId"`
	FlightNumber       string  `json:"flightNumber"`
	Airline            string  `json:"airline"`
	OriginAirport      string  `json:"originAirport"`
	DestinationAirport string  `json:"destinationAirport"`
	FlightDate         string  `json:"flightDate"`
	DepartureTime      string  `json:"departureTime"`
	ArrivalTime        string  `json:"arrivalTime"`
	Fare               float64 `json:"fare"`
	TotalSeats         int     `json:"totalSeats"`
	AvailableSeats     int     `json:"availableSeats"`
	Status             string  `json:"status"`
}

// PassengerRequest describes one traveller on a booking
type PassengerRequest struct {
	FullName   string `json:"fullName"`
	Gender     string `json:"gender"`
	Age        int    `json:"age"`
	SeatNumber string `json:"seatNumber"`
	MealOption string `json:"mealOption"`
}

// BookingCreateRequest books seats on a schedule
type BookingCreateRequest struct {
	ContactEmail string             `json:"contactEmail"`
	Passengers   []PassengerRequest `json:"passengers"`
}

// Ticket is an issued ticket for one passenger
type Ticket struct {
	TicketID      string `json:"ticketId"`
	PNR           string `json:"pnr"`
	ScheduleID    string `json:"scheduleId"`
	PassengerName string `json:"passengerName"`
	Gender        string `json:"gender,omitempty"`
	Age           int    `json:"age,omitempty"`
	SeatNumber    string `json:"seatNumber"`
	MealOption    string `json:"mealOption,omitempty"`
	Status        string `json:"status"`
	IssuedAt      string `json:"issuedAt,omitempty"`
}

// Booking is one entry of the booking history
type Booking struct {
	BookingID    string   `json:"bookingId"`
	PNR          string   `json:"pnr"`
	ScheduleID   string   `json:"scheduleId"`
	FlightNumber string   `json:"flightNumber,omitempty"`
	ContactEmail string   `json:"contactEmail"`
	Status       string   `json:"status"`
	TotalFare    float64  `json:"totalFare"`
	BookedAt     string   `json:"bookedAt"`
	Tickets      []Ticket `json:"tickets,omitempty"`
}

// FlightCreateRequest registers a new flight (admin)
type FlightCreateRequest struct {
	FlightNumber       string `json:"flightNumber"`
	Airline            string `json:"airline"`
	OriginAirport      string `json:"originAirport"`
	DestinationAirport string `json:"destinationAirport"`
	SeatCapacity       int    `json:"seatCapacity"`
}

// FlightScheduleCreateRequest adds inventory for a flight on a date (admin)
type FlightScheduleCreateRequest struct {
	FlightNumber  string  `json:"flightNumber"`
	FlightDate    string  `json:"flightDate"`
	DepartureTime string  `json:"departureTime"`
	ArrivalTime   string  `json:"arrivalTime"`
	Fare          float64 `json:"fare"`
}

// FlightResponse is a registered flight
type FlightResponse struct {
	ID                 string `json:"id"`
	FlightNumber       string `json:"flightNumber"`
	Airline            string `json:"airline"`
	OriginAirport      string `json:"originAirport"`
	DestinationAirport string `json:"destinationAirport"`
	SeatCapacity       int    `json:"seatCapacity"`
}

func flightPath(format string, args ...any) string {
	return FlightPrefix + fmt.Sprintf(format, args...)
}

// SearchFlights calls POST /admin/search
func (c *Client) SearchFlights(ctx context.Context, search FlightSearchRequest) ([]FlightSchedule, error) {
	req, err := c.newRequest(ctx, http.MethodPost, flightPath("/admin/search"), search)
	if err != nil {
		return nil, err
	}

	var schedules []FlightSchedule
	if err := c.doJSON(ctx, req, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// GetSchedule calls GET /admin/internal/schedules/{id}
func (c *Client) GetSchedule(ctx context.Context, scheduleID string) (*FlightSchedule, error) {
	req, err := c.newRequest(ctx, http.MethodGet, flightPath("/admin/internal/schedules/%s", url.PathEscape(scheduleID)), nil)
	if err != nil {
		return nil, err
	}

	var schedule FlightSchedule
	if err := c.doJSON(ctx, req, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// CreateBooking calls POST /booking/{scheduleId} and returns the PNR text
func (c *Client) CreateBooking(ctx context.Context, scheduleID string, booking BookingCreateRequest) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, flightPath("/booking/%s", url.PathEscape(scheduleID)), booking)
	if err != nil {
		return "", err
	}
	return c.doText(ctx, req)
}

// Bookings calls GET /booking/history
func (c *Client) Bookings(ctx context.Context) ([]Booking, error) {
	req, err := c.newRequest(ctx, http.MethodGet, flightPath("/booking/history"), nil)
	if err != nil {
		return nil, err
	}

	var bookings []Booking
	if err := c.doJSON(ctx, req, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// GetTicket calls GET /booking/ticket/{ticketId}
func (c *Client) GetTicket(ctx context.Context, ticketID string) (*Ticket, error) {
	req, err := c.newRequest(ctx, http.MethodGet, flightPath("/booking/ticket/%s", url.PathEscape(ticketID)), nil)
	if err != nil {
		return nil, err
	}

	var ticket Ticket
	if err := c.doJSON(ctx, req, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CreateFlight calls POST /admin/flights
func (c *Client) CreateFlight(ctx context.Context, flight FlightCreateRequest) (*Ack, error) {
	req, err := c.newRequest(ctx, http.MethodPost, flightPath("/admin/flights"), flight)
	if err != nil {
		return nil, err
	}

	var ack Ack
	if err := c.doJSON(ctx, req, &ack); err != nil {
		return nil, err
	}
	return ackOrDefault(ack, "Flight created"), nil
}

// ListFlights calls GET /admin/flights
func (c *Client) ListFlights(ctx context.Context) ([]FlightResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, flightPath("/admin/flights"), nil)
	if err != nil {
		return nil, err
	}

	var flights []FlightResponse
	if err := c.doJSON(ctx, req, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

// CreateSchedule calls POST /admin/inventory
func (c *Client) CreateSchedule(ctx context.Context, schedule FlightScheduleCreateRequest) (*Ack, error) {
	req, err := c.newRequest(ctx, http.MethodPost, flightPath("/admin/inventory"), schedule)
	if err != nil {
		return nil, err
	}

	var ack Ack
	if err := c.doJSON(ctx, req, &ack); err != nil {
		return nil, err
	}
	return ackOrDefault(ack, "Schedule created"), nil
}
