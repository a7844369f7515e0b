package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tourstack/go-portal-client/internal/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the stored session",
	Long: `Log out of the portal.

Both tokens are removed from local storage. No network call is made; logging
out twice is harmless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, closeStore, err := newManager(config.New())
		if err != nil {
			return err
		}
		defer closeStore()

		if err := manager.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
