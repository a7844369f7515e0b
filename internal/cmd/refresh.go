package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tourstack/go-portal-client/internal/config"
	"github.com/tourstack/go-portal-client/session"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force a new access token",
	Long: `Exchange the stored refresh token for a new access token.

A failed refresh ends the session; log in again afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeStore, err := newManager(config.New())
		if err != nil {
			return err
		}
		defer closeStore()

		if manager.Bootstrap(cmd.Context()) != session.StateAuthenticated {
			return fmt.Errorf("not logged in - run 'portalctl login' first")
		}

		if err := manager.Refresh(cmd.Context()); err != nil {
			return fmt.Errorf("refresh failed, session cleared: %w", err)
		}

		fmt.Println("Access token refreshed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
