// ABOUTME: Wires configuration, session storage, API client, and router for commands
// ABOUTME: Commands enter their route through the guards before doing any work

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/config"
	"github.com/flightdesk/flightdesk/internal/guard"
	"github.com/flightdesk/flightdesk/internal/logger"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/session"
)

// interactive reports whether prompts can be shown for missing input
var interactive = func() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// app holds what a command needs to talk to the API
type app struct {
	cfg    *config.Config
	store  *session.Store
	client *client.Client
	router *router.Router

	// entered is the location the command was admitted to
	entered string
}

// loadConfig loads configuration and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIURL = strings.TrimRight(apiURL, "/")
	}
	if storageMode != "" {
		cfg.Storage = strings.ToLower(storageMode)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads configuration, logs to stderr, and opens the app
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	return openApp(cfg)
}

// openApp opens session storage and builds the client and router. The router
// guards validate through the client, and the client's interceptor redirects
// through the router.
func openApp(cfg *config.Config) (*app, error) {
	storage, err := openStorage(cfg)
	if err != nil {
		return nil, err
	}
	store := session.New(storage, session.WithLogger(slog.Default()))

	r := router.New()
	c, err := client.New(cfg.APIURL,
		client.WithStore(store),
		client.WithNavigator(r),
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithProxy(cfg.AllProxy),
		client.WithLogger(slog.Default()),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	for _, rt := range router.Routes(store, c) {
		r.Add(rt)
	}

	return &app{cfg: cfg, store: store, client: c, router: r}, nil
}

// openStorage selects the session storage backend
func openStorage(cfg *config.Config) (session.Storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return session.NewMemoryStorage(), nil
	case config.StorageRedis:
		return session.OpenRedisStorage(cfg.RedisURL, cfg.SessionTTL)
	default:
		return session.NewFileStorage(cfg.ConfigDir), nil
	}
}

// Close releases session storage
func (a *app) Close() error {
	return a.store.Close()
}

// denial is the JSON output when guards keep a command from running
type denial struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// enter runs the route guards for target. When the command may not proceed
// it prints where the guards sent the user and returns the exit code.
func (a *app) enter(ctx context.Context, w io.Writer, target string) (router.Location, int, bool) {
	loc, err := a.router.Navigate(ctx, target)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return loc, 2, false
	}
	if !loc.Redirected {
		a.entered = loc.String()
		return loc, 0, true
	}

	if loc.Path == router.PathLogin {
		returnURL := loc.Query.Get(guard.ReturnURLParam)
		reason := loc.Reason
		if reason == "" {
			reason = "not signed in"
		}
		if IsJSONOutput() {
			fmt.Fprintln(w, toJSON(denial{Error: reason, Redirect: loc.String()}))
		} else {
			fmt.Fprintf(w, "Error: %s. Run 'flightdesk login --return-url %s' to continue.\n", reason, returnURL)
		}
		return loc, 1, false
	}

	reason := loc.Reason
	if reason == "" {
		reason = "access denied"
	}
	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(denial{Error: reason, Redirect: loc.String()}))
	} else {
		fmt.Fprintf(w, "Error: %s. You don't have access to %s.\n", reason, guard.PathOf(loc.Requested))
	}
	return loc, 1, false
}

// fail prints err and returns its exit code: 2 when the API could not be
// reached or failed, 1 when it rejected the request
func (a *app) fail(w io.Writer, err error) int {
	msg := client.Message(err)
	// The interceptor moves the router to sign-in when a 401 ends the session
	if current := a.router.Location(); current != a.entered && guard.PathOf(current) == router.PathLogin {
		msg += fmt.Sprintf(". Your session has ended; run 'flightdesk login --return-url %s'", guard.ReturnURL(current))
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(denial{Error: msg}))
	} else {
		fmt.Fprintf(w, "Error: %s\n", msg)
	}

	if errors.Is(err, client.ErrNetwork) {
		return 2
	}
	return 1
}

// prompt runs form when the terminal allows it
func prompt(w io.Writer, missing string, form *huh.Form) int {
	if !interactive() {
		fmt.Fprintf(w, "Error: %s required\n", missing)
		return 1
	}
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(w, "Cancelled.")
			return 1
		}
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}

// toJSON formats v as indented JSON
func toJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}

// commandFor names the command that opens location, if any
func commandFor(r *router.Router, location string) string {
	rt, params, ok := r.Match(guard.PathOf(location))
	if !ok {
		return ""
	}
	switch rt.Path {
	case router.PathProfile:
		return "flightdesk whoami"
	case router.PathChangePassword:
		return "flightdesk password change"
	case router.PathSearch:
		return "flightdesk search"
	case router.PathBooking:
		return "flightdesk book " + params["scheduleId"]
	case router.PathBookings:
		return "flightdesk bookings"
	case router.PathTicket:
		return "flightdesk ticket " + params["ticketId"]
	case router.PathAdmin, router.PathAdminFlights:
		return "flightdesk admin flights list"
	case router.PathAdminNewFlight:
		return "flightdesk admin flights create"
	case router.PathAdminSchedule:
		return "flightdesk admin schedules create"
	default:
		return ""
	}
}
