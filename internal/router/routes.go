// ABOUTME: Application route table shared by the CLI and the TUI
// ABOUTME: Declares which routes need a session and which need the admin role

package router

import (
	"context"

	"github.com/flightdesk/flightdesk/internal/guard"
	"github.com/flightdesk/flightdesk/internal/session"
)

// Application paths
const (
	PathRoot           = "/"
	PathHome           = guard.HomePath
	PathLogin          = guard.LoginPath
	PathRegister       = "/register"
	PathLogout         = "/logout"
	PathHealth         = "/health"
	PathForgotPassword = "/forgot-password"
	PathResetPassword  = "/reset-password"
	PathSearch         = "/search"
	PathProfile        = "/profile"
	PathChangePassword = "/profile/password"
	PathBooking        = "/booking/:scheduleId"
	PathBookings       = "/bookings"
	PathTicket         = "/ticket/:ticketId"
	PathAdmin          = "/admin"
	PathAdminFlights   = "/admin/flights"
	PathAdminNewFlight = "/admin/flights/new"
	PathAdminSchedule  = "/admin/schedules/new"
)

// Routes returns the application route table
func Routes(store guard.Store, validator guard.Validator) []Route {
	auth := []guard.Func{guard.Authenticated(store, validator)}
	admin := []guard.Func{guard.Authenticated(store, validator), guard.RequireRoles(store, session.RoleAdmin)}

	return []Route{
		{Path: PathRoot, Title: "Home", Guards: []guard.Func{redirectTo(PathHome)}},
		{Path: PathHome, Title: "Home"},
		{Path: PathLogin, Title: "Sign in"},
		{Path: PathRegister, Title: "Register"},
		{Path: PathLogout, Title: "Sign out"},
		{Path: PathHealth, Title: "Health"},
		{Path: PathForgotPassword, Title: "Forgot password"},
		{Path: PathResetPassword, Title: "Reset password"},
		{Path: PathSearch, Title: "Search flights"},
		{Path: PathProfile, Title: "Profile", Guards: auth},
		{Path: PathChangePassword, Title: "Change password", Guards: auth},
		{Path: PathBooking, Title: "Book flight", Guards: auth},
		{Path: PathBookings, Title: "My bookings", Guards: auth},
		{Path: PathTicket, Title: "Ticket", Guards: auth},
		{Path: PathAdmin, Title: "Admin", Guards: admin},
		{Path: PathAdminFlights, Title: "Flights", Guards: admin},
		{Path: PathAdminNewFlight, Title: "Create flight", Guards: admin},
		{Path: PathAdminSchedule, Title: "Create schedule", Guards: admin},
	}
}

// redirectTo always sends navigation to target
func redirectTo(target string) guard.Func {
	return func(ctx context.Context, req guard.Request) guard.Decision {
		return guard.Denied(target, "")
	}
}
