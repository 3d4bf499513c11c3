package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/aada-edu/aada/internal/browser"
	"github.com/aada-edu/aada/internal/tui"
	"github.com/aada-edu/aada/internal/wizard"
	"github.com/aada-edu/aada/pkg/client"
)

// Swapped out in tests.
var (
	openURL    = browser.Open
	runProgram = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

var errNotLoggedIn = errors.New("not logged in, run `aada login`")

func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	e, err := newEnv(cmd.Context(), flags)
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck

	links := tui.Links{
		Terms:   e.cfg.LegalURL("terms"),
		Privacy: e.cfg.LegalURL("privacy"),
		Open:    openURL,
	}
	if err := runProgram(tui.NewApp(e.svc, version, links)); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func loginCmd(flags *globalFlags) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			p := newPrompter(cmd)
			if email == "" {
				if email, err = p.line("Email: "); err != nil {
					return err
				}
			}
			password, err := p.password("Password: ")
			if err != nil {
				return err
			}
			if email == "" || password == "" {
				return errors.New("Please enter your email and password")
			}

			resp, err := e.svc.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", resp.User.DisplayName())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (prompted if empty)")
	return cmd
}

func logoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			if !e.svc.IsLoggedIn(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Already logged out.")
				return nil
			}
			e.svc.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			if !e.svc.IsLoggedIn(ctx) {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			if u := e.svc.StoredUser(ctx); u != nil {
				fmt.Fprintf(out, "Logged in as %s <%s>\n", u.DisplayName(), u.Email)
			} else {
				fmt.Fprintln(out, "Logged in.")
			}
			fmt.Fprintf(out, "API: %s\n", e.cfg.APIURL)

			exp, ok := e.svc.SessionExpiry(ctx)
			switch {
			case !ok:
			case time.Until(exp) > 0:
				fmt.Fprintf(out, "Access token expires %s (in %s)\n",
					exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Second))
			default:
				fmt.Fprintf(out, "Access token expired %s; it is refreshed on the next request\n",
					exp.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func documentsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List your uploaded documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			ctx := cmd.Context()
			if !e.svc.IsLoggedIn(ctx) {
				return errNotLoggedIn
			}
			docs, err := e.svc.GetUserDocuments(ctx)
			if errors.Is(err, client.ErrSessionExpired) {
				return errors.New("session expired, run `aada login`")
			}
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No documents uploaded yet")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tSTATUS\tUPLOADED\tFILE")
			for _, d := range docs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.TypeLabel(), d.StatusLabel(), formatDate(d.UploadedAt), d.FileName)
			}
			return w.Flush()
		},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Local().Format("Jan 2, 2006")
}

func verifyEmailCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Confirm your email address with the token from the email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			if !e.svc.VerifyEmail(cmd.Context(), args[0]) {
				return errors.New("email verification failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Email verified.")
			return nil
		},
	}
}

func forgotPasswordCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Request a password reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			email := strings.TrimSpace(args[0])
			if !e.svc.ForgotPassword(cmd.Context(), email) {
				return errors.New("password reset request failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "If an account exists for %s, a reset link is on its way.\n", email)
			return nil
		},
	}
}

func resetPasswordCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <token>",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			password, err := p.password("New password: ")
			if err != nil {
				return err
			}
			confirm, err := p.password("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("Passwords do not match")
			}
			for _, c := range wizard.PasswordChecks(password) {
				if !c.OK {
					return errors.New(c.Message)
				}
			}

			e, err := newEnv(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck

			if !e.svc.ResetPassword(cmd.Context(), args[0], password) {
				return errors.New("password reset failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated. You can now log in.")
			return nil
		},
	}
}

func legalCmd(flags *globalFlags, page, short string) *cobra.Command {
	return &cobra.Command{
		Use:   page,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			url := cfg.LegalURL(page)
			if err := openURL(url); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), url)
			}
			return nil
		},
	}
}
