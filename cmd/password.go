// ABOUTME: Password commands for flightdesk CLI
// ABOUTME: Requests reset emails, redeems reset tokens, and changes the password

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flightdesk/flightdesk/internal/client"
	"github.com/flightdesk/flightdesk/internal/router"
	"github.com/flightdesk/flightdesk/internal/tui/forms"
	"github.com/flightdesk/flightdesk/internal/validate"
)

type passwordOptions struct {
	email    string
	token    string
	current  string
	password string
}

var passwordOpts passwordOptions

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Reset or change your password",
}

var passwordForgotCmd = &cobra.Command{
	Use:   "forgot",
	Short: "Email a password reset token",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPasswordForgot(ctx, os.Stdout, passwordOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var passwordResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Set a new password with a reset token",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPasswordReset(ctx, os.Stdout, passwordOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var passwordChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the password of the signed-in user",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPasswordChange(ctx, os.Stdout, passwordOpts)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	passwordForgotCmd.Flags().StringVar(&passwordOpts.email, "email", "", "Account email address")
	passwordResetCmd.Flags().StringVar(&passwordOpts.token, "token", "", "Reset token from the email")
	passwordResetCmd.Flags().StringVarP(&passwordOpts.password, "password", "p", "", "New password")
	passwordChangeCmd.Flags().StringVar(&passwordOpts.current, "current", "", "Current password")
	passwordChangeCmd.Flags().StringVarP(&passwordOpts.password, "password", "p", "", "New password")

	passwordCmd.AddCommand(passwordForgotCmd, passwordResetCmd, passwordChangeCmd)
	rootCmd.AddCommand(passwordCmd)
}

// runPasswordForgot requests a reset email and returns exit code
func runPasswordForgot(ctx context.Context, w io.Writer, opts passwordOptions) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathForgotPassword); !ok {
		return code
	}

	email := opts.email
	if email == "" {
		if code := prompt(w, "--email", forms.ForgotPassword(&email)); code != 0 {
			return code
		}
	}
	if err := validate.Email(email); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	ack, err := a.client.RequestPasswordReset(ctx, email)
	if err != nil {
		return a.fail(w, err)
	}
	printAck(w, ack, "Then run 'flightdesk password reset --token <token>'.")
	return 0
}

// runPasswordReset redeems a reset token and returns exit code
func runPasswordReset(ctx context.Context, w io.Writer, opts passwordOptions) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathResetPassword); !ok {
		return code
	}

	reset := forms.PasswordReset{Token: opts.token, New: opts.password, Confirm: opts.password}
	if reset.Token == "" || reset.New == "" {
		if code := prompt(w, "--token and --password", forms.ResetPassword(&reset)); code != 0 {
			return code
		}
	}
	if err := reset.Validate(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	ack, err := a.client.ResetPassword(ctx, reset.Token, reset.New, reset.Confirm)
	if err != nil {
		return a.fail(w, err)
	}
	printAck(w, ack, "Run 'flightdesk login' to sign in with the new password.")
	return 0
}

// runPasswordChange changes the password and returns exit code
func runPasswordChange(ctx context.Context, w io.Writer, opts passwordOptions) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if _, code, ok := a.enter(ctx, w, router.PathChangePassword); !ok {
		return code
	}

	change := forms.PasswordChange{Current: opts.current, New: opts.password, Confirm: opts.password}
	if change.Current == "" || change.New == "" {
		if code := prompt(w, "--current and --password", forms.ChangePassword(&change)); code != 0 {
			return code
		}
	}
	if err := change.Validate(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}

	ack, err := a.client.ChangePassword(ctx, change.Current, change.New, change.Confirm)
	if err != nil {
		return a.fail(w, err)
	}
	printAck(w, ack, "")
	return 0
}

// printAck prints a server acknowledgement with an optional hint
func printAck(w io.Writer, ack *client.Ack, hint string) {
	if IsJSONOutput() {
		fmt.Fprintln(w, toJSON(ack))
		return
	}
	fmt.Fprintln(w, ack.Message)
	if hint != "" {
		fmt.Fprintln(w, hint)
	}
}
