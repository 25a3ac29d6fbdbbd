package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/efecanulku/docdash/internal/config"
	"github.com/efecanulku/docdash/internal/gateway"
	"github.com/efecanulku/docdash/internal/session"
	"github.com/efecanulku/docdash/internal/view"
)

// --- auth ---

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and store the access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			var err error
			password, err = readPassword("Password: ")
			if err != nil {
				return err
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.session.Login(ctx, a.gw, email, password); err != nil {
			return err
		}
		a.session.LoadProfile(ctx, a.gw)

		printSuccess("Signed in as %s", email)
		if a.local != nil {
			// The next bare `docdash open` lands on the dashboard.
			if err := a.local.SetPendingSection(view.SectionDashboard.String()); err != nil {
				printWarning("could not record section handoff: %v", err)
			}
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.session.Logout()
		printSuccess("Signed out")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]
		username, _ := cmd.Flags().GetString("username")
		company, _ := cmd.Flags().GetString("company")
		password, _ := cmd.Flags().GetString("password")
		if username == "" {
			username = email[:strings.IndexByte(email+"@", '@')]
		}
		if password == "" {
			var err error
			password, err = readPassword("Password: ")
			if err != nil {
				return err
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.gw.Register(cmd.Context(), gateway.RegisterRequest{
			Email:       email,
			Username:    username,
			CompanyName: company,
			Password:    password,
		})
		if err != nil {
			return err
		}
		printSuccess("Registered %s (id %d); run `docdash login %s` to sign in", user.Email, user.ID, user.Email)
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.session.IsAuthenticated() {
			return fmt.Errorf("not signed in; run `docdash login <email>`")
		}

		user, err := a.gw.Me(cmd.Context())
		if err != nil {
			return err
		}
		printStatus("Email", "%s", user.Email)
		printStatus("Username", "%s", user.Username)
		if user.CompanyName != "" {
			printStatus("Company", "%s", user.CompanyName)
		}

		if claims, err := session.ParseClaims(a.session.Token()); err == nil && !claims.ExpiresAt.IsZero() {
			printStatus("Token expires", "%s", formatDate(claims.ExpiresAt))
		}
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := map[string]any{}
		if cmd.Flags().Changed("username") {
			v, _ := cmd.Flags().GetString("username")
			fields["username"] = v
		}
		if cmd.Flags().Changed("company") {
			v, _ := cmd.Flags().GetString("company")
			fields["company_name"] = v
		}
		if len(fields) == 0 {
			return fmt.Errorf("nothing to update; pass --username or --company")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.gw.UpdateMe(cmd.Context(), fields)
		if err != nil {
			return err
		}
		printSuccess("Profile updated for %s", user.Email)
		return nil
	},
}

// --- navigation ---

var openCmd = &cobra.Command{
	Use:   "open [section]",
	Short: "Open a section (dashboard, documents, chat, search)",
	Long: `Open a section and load its data.

With no argument the pending section handoff from the previous command is
honored, falling back to the dashboard.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if len(args) == 0 {
			return a.ctrl.Start(ctx)
		}
		section, err := view.ParseSection(args[0])
		if err != nil {
			return err
		}
		return a.ctrl.GoTo(ctx, section)
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show document statistics and recent uploads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return a.ctrl.GoTo(cmd.Context(), view.SectionDashboard)
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted when omitted)")
	registerCmd.Flags().String("username", "", "display name (defaults to the email local part)")
	registerCmd.Flags().String("company", "", "company name")
	registerCmd.Flags().String("password", "", "password (prompted when omitted)")
	profileCmd.Flags().String("username", "", "new display name")
	profileCmd.Flags().String("company", "", "new company name")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
