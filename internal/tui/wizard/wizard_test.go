// ABOUTME: Tests for the booking wizard
// ABOUTME: Drives step transitions directly and checks the emitted messages

package wizard

import (
	"strings"
	"testing"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
)

func testSchedule() *client.FlightSchedule {
	return &client.FlightSchedule{
		ScheduleID:         "S-42",
		FlightNumber:       "AI101",
		OriginAirport:      "DEL",
		DestinationAirport: "BOM",
		FlightDate:         "2026-11-01",
		DepartureTime:      "09:00",
		Fare:               4500,
	}
}

func fill(w *Wizard, passengers ...forms.Passenger) {
	for i := range passengers {
		w.passengers[i] = passengers[i]
	}
}

func TestWizardStartsAtContact(t *testing.T) {
	w := New(testSchedule(), "alice@example.com")

	if w.Step() != stepContact {
		t.Errorf("expected step 1, got %d", w.Step())
	}
	if w.contact.Email != "alice@example.com" {
		t.Errorf("expected prefilled email, got %q", w.contact.Email)
	}
	if w.contact.Passengers != "1" {
		t.Errorf("expected one passenger by default, got %q", w.contact.Passengers)
	}
}

func TestWizardCompletesBooking(t *testing.T) {
	w := New(testSchedule(), "alice@example.com")
	w.contact.Passengers = "2"

	w.advanceStep()
	if w.Step() != stepPassengers || len(w.passengers) != 2 {
		t.Fatalf("expected passengers step with 2 slots, got step %d with %d", w.Step(), len(w.passengers))
	}

	fill(w,
		forms.Passenger{FullName: "Alice", Gender: "FEMALE", Age: "34", Seat: "12A", Meal: "VEG"},
		forms.Passenger{FullName: "Bob", Gender: "MALE", Age: "40", Seat: "12B", Meal: "VEGAN"},
	)

	w.advanceStep()
	if w.Step() != stepPassengers || w.current != 1 {
		t.Fatalf("expected second passenger form, got step %d passenger %d", w.Step(), w.current)
	}

	w.advanceStep()
	if w.Step() != stepConfirm {
		t.Fatalf("expected confirm step, got %d", w.Step())
	}
	if w.TotalFare() != 9000 {
		t.Errorf("expected total fare 9000, got %.2f", w.TotalFare())
	}
	if !strings.Contains(w.Summary(), "AI101 DEL → BOM") {
		t.Errorf("unexpected summary %q", w.Summary())
	}

	_, cmd := w.advanceStep()
	msg, ok := cmd().(CompleteMsg)
	if !ok {
		t.Fatalf("expected CompleteMsg, got %T", cmd())
	}
	if msg.ScheduleID != "S-42" || len(msg.Request.Passengers) != 2 {
		t.Errorf("unexpected completion %+v", msg)
	}
}

func TestWizardInvalidPassengersRestart(t *testing.T) {
	w := New(testSchedule(), "alice@example.com")
	w.contact.Passengers = "2"
	w.advanceStep()

	same := forms.Passenger{FullName: "Alice", Gender: "FEMALE", Age: "34", Seat: "12A", Meal: "VEG"}
	fill(w, same, same)
	w.advanceStep()
	w.advanceStep()

	if w.Step() != stepPassengers || w.current != 0 {
		t.Fatalf("expected to return to the first passenger, got step %d passenger %d", w.Step(), w.current)
	}
	if w.err == nil || !strings.Contains(w.err.Error(), "already taken") {
		t.Errorf("expected duplicate seat error, got %v", w.err)
	}
}

func TestWizardDeclined(t *testing.T) {
	w := New(testSchedule(), "alice@example.com")
	w.advanceStep()
	fill(w, forms.Passenger{FullName: "Alice", Gender: "FEMALE", Age: "34", Seat: "1A", Meal: "VEG"})
	w.advanceStep()

	w.confirmed = false
	_, cmd := w.advanceStep()
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Errorf("expected CancelledMsg, got %T", cmd())
	}
}

func TestRenderProgress(t *testing.T) {
	w := New(testSchedule(), "")
	w.SetWidth(80)

	out := w.renderProgress()
	for _, name := range stepNames {
		if !strings.Contains(out, name) {
			t.Errorf("expected step %q in progress", name)
		}
	}
}
