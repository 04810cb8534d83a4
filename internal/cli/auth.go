package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/ui"
)

// passwordEnvVar lets scripts log in without a prompt
const passwordEnvVar = "TRUTHLENS_PASSWORD"

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Long: `Sign in to the TruthLens server. Missing fields are asked for
interactively; the password can also be passed in $TRUTHLENS_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Erase the stored session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&loginEmail, "email", "", "account email")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

// credentials returns the email and password from flags and the
// environment, prompting for whatever is missing
func credentials() (*api.Credentials, error) {
	creds := &api.Credentials{Email: loginEmail, Password: os.Getenv(passwordEnvVar)}
	if creds.Email != "" && creds.Password != "" {
		return creds, nil
	}
	return ui.NewLoginForm(creds.Email).Run()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, env.cfg.Timeout())
}

func runLogin(cmd *cobra.Command, args []string) error {
	creds, err := credentials()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	if _, err := env.client.Login(ctx, *creds); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", creds.Email)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	creds, err := credentials()
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	user, err := env.client.Register(ctx, *creds)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if _, err := env.client.Login(ctx, *creds); err != nil {
		return fmt.Errorf("account created but sign-in failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created account %s and signed in\n", user.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	if err := env.client.Logout(); err != nil {
		return fmt.Errorf("failed to erase token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	if !env.tokens.Authenticated() {
		return sessionError(api.ErrUnauthorized)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	var (
		profile *api.Profile
		items   []api.HistoryItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = env.client.Me(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = env.client.History(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return sessionError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Email:         %s\n", profile.Email)
	if !profile.MemberSince.IsZero() {
		fmt.Fprintf(out, "Member since:  %s\n", humanize.Time(profile.MemberSince.Time))
	}
	fmt.Fprintf(out, "Analyses:      %d (%d in history)\n", profile.TotalAnalyses, len(items))
	if claims, err := env.tokens.Claims(); err == nil && claims != nil && !claims.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Token expires: %s\n", humanize.RelTime(claims.ExpiresAt, time.Now(), "ago", "from now"))
	}
	return nil
}
