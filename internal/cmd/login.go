package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tourstack/go-portal-client/guard"
	"github.com/tourstack/go-portal-client/internal/config"
	"github.com/tourstack/go-portal-client/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the portal",
	Long: `Log in with your portal credentials and persist the session.

The password is prompted for when --password is not given.

Examples:
  portalctl login --username alice
  portalctl login --username alice --portal vendor`,
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		portal, _ := cmd.Flags().GetString("portal")

		if username == "" {
			return fmt.Errorf("--username is required")
		}
		if password == "" {
			fmt.Fprint(os.Stderr, "Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("reading password: %w", err)
			}
			password = string(raw)
		}

		manager, closeStore, err := newManager(config.New())
		if err != nil {
			return err
		}
		defer closeStore()

		if err := manager.Login(cmd.Context(), username, password); err != nil {
			return err
		}

		identity := manager.Identity()
		fmt.Printf("Logged in as %s (%s)\n", identity.Username, identity.Role)

		// A portal choice that doesn't match the account's role denies
		// navigation but keeps the session; the user may pick another
		// portal without re-entering credentials.
		if portal != "" && session.RoleType(portal) != identity.Role {
			fmt.Printf("Note: your account belongs to the %s portal, not %s.\n", identity.Role, portal)
		}
		fmt.Printf("Dashboard: %s\n", guard.HomePath(identity.Role))
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "portal username")
	loginCmd.Flags().String("password", "", "portal password (prompted when omitted)")
	loginCmd.Flags().String("portal", "", "portal you intend to use (admin, vendor, stay_owner)")
	rootCmd.AddCommand(loginCmd)
}
