package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tourstack/go-portal-client/guard"
	"github.com/tourstack/go-portal-client/internal/config"
	"github.com/tourstack/go-portal-client/session"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	Long: `Show the session state, the signed-in identity, and which portal
pages the route guard would allow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeStore, err := newManager(config.New())
		if err != nil {
			return err
		}
		defer closeStore()

		state := manager.Bootstrap(cmd.Context())
		fmt.Printf("Session: %s\n", state)

		if state != session.StateAuthenticated {
			fmt.Println("Run 'portalctl login' to sign in.")
			return nil
		}

		identity := manager.Identity()
		fmt.Printf("User:     %s <%s>\n", identity.Username, identity.Email)
		fmt.Printf("Role:     %s\n", identity.Role)
		fmt.Printf("Approved: %t\n", identity.Approved)
		fmt.Println()

		portals := []struct {
			name string
			req  guard.Requirements
		}{
			{"admin", guard.Requirements{AllowedRoles: []session.RoleType{session.RoleAdmin}}},
			{"vendor", guard.Requirements{AllowedRoles: []session.RoleType{session.RoleVendor}, RequireApproval: true}},
			{"stay-owner", guard.Requirements{AllowedRoles: []session.RoleType{session.RoleStayOwner}, RequireApproval: true}},
		}
		for _, p := range portals {
			decision := guard.Decide(state, identity, p.req)
			switch decision.Action {
			case guard.Redirect:
				fmt.Printf("%-11s -> redirect to %s\n", p.name, decision.Path)
			default:
				fmt.Printf("%-11s -> %s\n", p.name, decision.Action)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
