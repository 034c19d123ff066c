package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func runMatch(api, token, itemID, itemType string, out io.Writer) error {
	if itemID == "" || itemType == "" {
		return fmt.Errorf("--item and --type required")
	}
	resp, err := newClient(api, token).R().
		SetBody(map[string]string{"itemId": itemID, "itemType": itemType}).
		Post("/api/match")
	return emit(resp, err, out)
}

func runMatches(api, token string, out io.Writer) error {
	resp, err := newClient(api, token).R().Get("/api/matches")
	return emit(resp, err, out)
}

func runNotifications(api, token string, out io.Writer) error {
	resp, err := newClient(api, token).R().Get("/api/notifications")
	return emit(resp, err, out)
}

func runNotificationRead(api, token, id string, out io.Writer) error {
	resp, err := newClient(api, token).R().SetPathParam("id", id).Post("/api/notifications/{id}/read")
	return emit(resp, err, out, http.StatusNoContent)
}

func init() {
	var itemID, itemType string
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Run matching for a report now and print the accepted candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(apiFlag, tokenFlag, itemID, itemType, os.Stdout)
		},
	}
	matchCmd.Flags().StringVarP(&itemID, "item", "i", "", "Report ID (required)")
	matchCmd.Flags().StringVar(&itemType, "type", "", "lost or found (required)")
	rootCmd.AddCommand(matchCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "matches",
		Short: "List matches involving my reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatches(apiFlag, tokenFlag, os.Stdout)
		},
	})

	notesCmd := &cobra.Command{
		Use:   "notifications",
		Short: "List my unread notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotifications(apiFlag, tokenFlag, os.Stdout)
		},
	}
	notesCmd.AddCommand(&cobra.Command{
		Use:   "read NOTIFICATION_ID",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotificationRead(apiFlag, tokenFlag, args[0], os.Stdout)
		},
	})
	rootCmd.AddCommand(notesCmd)
}
