package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tourstack/go-portal-client/internal/config"
	"github.com/tourstack/go-portal-client/session"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new vendor or stay-owner account",
	Long: `Register a new account with the portal.

Registration never signs you in: vendor and stay-owner accounts wait for
admin approval before their first login.

Examples:
  portalctl register --role vendor --username bob --email bob@example.com
  portalctl register --role stay_owner --username carol --email carol@example.com --business-name "Hill View Homestay"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		form := session.Registration{}
		form.Username, _ = cmd.Flags().GetString("username")
		form.Email, _ = cmd.Flags().GetString("email")
		form.Password, _ = cmd.Flags().GetString("password")
		form.PasswordConfirm, _ = cmd.Flags().GetString("password2")
		form.FirstName, _ = cmd.Flags().GetString("first-name")
		form.LastName, _ = cmd.Flags().GetString("last-name")
		form.BusinessName, _ = cmd.Flags().GetString("business-name")
		form.BusinessAddress, _ = cmd.Flags().GetString("business-address")
		role, _ := cmd.Flags().GetString("role")
		form.Role = session.RoleType(role)

		if form.Username == "" || form.Email == "" {
			return fmt.Errorf("--username and --email are required")
		}
		if form.Password == "" {
			return fmt.Errorf("--password is required")
		}
		if form.PasswordConfirm == "" {
			form.PasswordConfirm = form.Password
		}

		manager, closeStore, err := newManager(config.New())
		if err != nil {
			return err
		}
		defer closeStore()

		result, err := manager.Register(cmd.Context(), form)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		fmt.Println(result.Message)
		if result.RequiresApproval {
			fmt.Println("Your account needs admin approval before you can log in.")
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().String("username", "", "account username")
	registerCmd.Flags().String("email", "", "account email")
	registerCmd.Flags().String("password", "", "account password")
	registerCmd.Flags().String("password2", "", "password confirmation (defaults to --password)")
	registerCmd.Flags().String("role", "vendor", "account role (vendor or stay_owner)")
	registerCmd.Flags().String("first-name", "", "first name")
	registerCmd.Flags().String("last-name", "", "last name")
	registerCmd.Flags().String("business-name", "", "business name for the claim")
	registerCmd.Flags().String("business-address", "", "business address for the claim")
	rootCmd.AddCommand(registerCmd)
}
