// ABOUTME: Sign-in, sign-out, registration, and profile commands
// ABOUTME: Missing credentials are prompted for with huh when attached to a terminal

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/guard"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/session"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
)

type loginOptions struct {
	username      string
	password      string
	googleIDToken string
	returnURL     string
}

type registerOptions struct {
	username string
	email    string
	password string
	admin    bool
}

var (
	loginOpts    loginOptions
	registerOpts registerOptions
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the flight service",
	Long: `Sign in with a username and password, or exchange a Google ID token.
Missing credentials are prompted for when running in a terminal.

Use --return-url to continue where a command sent you to sign in.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout, loginOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogout(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long:  `Show the signed-in user after confirming the session with the server.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runWhoami(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRegister(ctx, os.Stdout, registerOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginOpts.username, "username", "u", "", "Username")
	loginCmd.Flags().StringVarP(&loginOpts.password, "password", "p", "", "Password")
	loginCmd.Flags().StringVar(&loginOpts.googleIDToken, "google-id-token", "", "Sign in with a Google ID token instead of a password")
	loginCmd.Flags().StringVar(&loginOpts.returnURL, "return-url", "", "Route to continue to after signing in")

	registerCmd.Flags().StringVarP(&registerOpts.username, "username", "u", "", "Username (3-20 characters)")
	registerCmd.Flags().StringVar(&registerOpts.email, "email", "", "Email address")
	registerCmd.Flags().StringVarP(&registerOpts.password, "password", "p", "", "Password")
	registerCmd.Flags().BoolVar(&registerOpts.admin, "admin", false, "Request the admin role")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd)
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer, opts loginOptions) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	location := guard.LoginRedirect(opts.returnURL)
	if _, code, ok := a.enter(ctx, w, location); !ok {
		return code
	}

	var sess *session.Session
	if opts.googleIDToken != "" {
		sess, err = a.client.ExchangeOAuthCredential(ctx, opts.googleIDToken)
	} else {
		creds := forms.Credentials{Username: opts.username, Password: opts.password}
		if creds.Username == "" || creds.Password == "" {
			if code := prompt(w, "--username and --password", forms.Login(&creds)); code != 0 {
				return code
			}
		}
		sess, err = a.client.SignIn(ctx, creds.Username, creds.Password)
	}
	if err != nil {
		return a.fail(w, err)
	}

	next := guard.ReturnURL(location)
	if IsJSONOutput() {
		fmt.Fprintln(w, formatLoginJSON(sess, next))
	} else {
		fmt.Fprintln(w, formatLoginHuman(sess, commandFor(a.router, next)))
	}
	return 0
}

// formatLoginHuman formats the signed-in user and where to go next
func formatLoginHuman(sess *session.Session, nextCommand string) string {
	out := fmt.Sprintf("Signed in as %s (%s)", sess.Username, strings.Join(sess.Roles, ", "))
	if nextCommand != "" {
		out += fmt.Sprintf("\nContinue with: %s", nextCommand)
	}
	return out
}

// formatLoginJSON formats the sign-in result as JSON
func formatLoginJSON(sess *session.Session, next string) string {
	return toJSON(map[string]any{
		"username": sess.Username,
		"email":    sess.Email,
		"roles":    sess.Roles,
		"next":     next,
	})
}

// runLogout signs out and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathLogout); !ok {
		return code
	}

	if !a.store.IsAuthenticated() {
		fmt.Fprintln(w, "Not signed in.")
		return 0
	}

	message := "You've been signed out"
	ack, err := a.client.SignOut(ctx)
	if err != nil {
		// The local session is gone either way
		message = "Signed out locally; the server could not be told: " + client.Message(err)
	} else if ack.Message != "" {
		message = ack.Message
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(map[string]any{"signedOut": true, "message": message}))
	} else {
		fmt.Fprintln(w, message)
	}
	return 0
}

// runWhoami shows the validated session and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathProfile); !ok {
		return code
	}

	sess := a.store.Current()
	if IsJSONOutput() {
		fmt.Fprintln(w, formatWhoamiJSON(sess))
	} else {
		fmt.Fprintln(w, formatWhoamiHuman(sess))
	}
	return 0
}

// formatWhoamiHuman formats the session for human readability
func formatWhoamiHuman(sess *session.Session) string {
	expires := "unknown"
	if exp := sess.ExpiresAt(); !exp.IsZero() {
		expires = exp.Local().Format(time.RFC1123)
	}
	return fmt.Sprintf(`Username: %s
Email:    %s
Roles:    %s
Expires:  %s`, sess.Username, sess.Email, strings.Join(sess.Roles, ", "), expires)
}

// formatWhoamiJSON formats the session as JSON without its credential
func formatWhoamiJSON(sess *session.Session) string {
	out := map[string]any{
		"id":       sess.ID,
		"username": sess.Username,
		"email":    sess.Email,
		"roles":    sess.Roles,
		"admin":    sess.IsAdmin(),
	}
	if exp := sess.ExpiresAt(); !exp.IsZero() {
		out["expiresAt"] = exp.UTC().Format(time.RFC3339)
	}
	return toJSON(out)
}

// runRegister creates an account and returns exit code
func runRegister(ctx context.Context, w io.Writer, opts registerOptions) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathRegister); !ok {
		return code
	}

	reg := forms.Registration{
		Username: opts.username,
		Email:    opts.email,
		Password: opts.password,
		Confirm:  opts.password,
		Admin:    opts.admin,
	}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		if code := prompt(w, "--username, --email and --password", forms.Register(&reg)); code != 0 {
			return code
		}
	}

	req, err := reg.Request()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	ack, err := a.client.SignUp(ctx, req)
	if err != nil {
		return a.fail(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(map[string]any{"username": req.Username, "message": ack.Message}))
	} else {
		fmt.Fprintf(w, "%s\nRun 'flightdesk login -u %s' to sign in.\n", ack.Message, req.Username)
	}
	return 0
}
