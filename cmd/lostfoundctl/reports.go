package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

type reportInput struct {
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Location    string  `json:"location"`
	OccurredOn  string  `json:"occurredOn"`
	OccurredAt  *string `json:"occurredAt,omitempty"`
	ImageRef    string  `json:"imageRef,omitempty"`
}

func runReportCreate(api, token string, in reportInput, out io.Writer) error {
	resp, err := newClient(api, token).R().SetBody(in).Post("/api/reports")
	return emit(resp, err, out, http.StatusCreated)
}

func runReportGet(api, token, id string, out io.Writer) error {
	resp, err := newClient(api, token).R().SetPathParam("id", id).Get("/api/reports/{id}")
	return emit(resp, err, out)
}

func runReportList(api, token string, kind, status, category string, limit int, mine bool, out io.Writer) error {
	req := newClient(api, token).R()
	if mine {
		resp, err := req.Get("/api/reports/mine")
		return emit(resp, err, out)
	}
	for k, v := range map[string]string{"kind": kind, "status": status, "category": category} {
		if v != "" {
			req.SetQueryParam(k, v)
		}
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	resp, err := req.Get("/api/reports")
	return emit(resp, err, out)
}

func runReportResolve(api, token, id string, out io.Writer) error {
	resp, err := newClient(api, token).R().SetPathParam("id", id).Patch("/api/reports/{id}/resolve")
	return emit(resp, err, out)
}

func runImageUpload(api, token, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	resp, err := newClient(api, token).R().
		SetFileReader("file", filepath.Base(path), f).
		Post("/api/images")
	return emit(resp, err, out, http.StatusCreated)
}

func init() {
	reportsCmd := &cobra.Command{Use: "reports", Short: "Lost and found report operations"}

	var in reportInput
	var occurredAt string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a lost or found report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Kind != "lost" && in.Kind != "found" {
				return fmt.Errorf("--kind must be lost or found")
			}
			if occurredAt != "" {
				in.OccurredAt = &occurredAt
			}
			return runReportCreate(apiFlag, tokenFlag, in, os.Stdout)
		},
	}
	createCmd.Flags().StringVarP(&in.Kind, "kind", "k", "", "lost or found (required)")
	createCmd.Flags().StringVarP(&in.Category, "category", "c", "", "Category, e.g. Wallet (required)")
	createCmd.Flags().StringVar(&in.Title, "title", "", "Short title (required)")
	createCmd.Flags().StringVarP(&in.Description, "description", "d", "", "Free-text description")
	createCmd.Flags().StringVarP(&in.Location, "location", "l", "", "Where it was lost or found (required)")
	createCmd.Flags().StringVar(&in.OccurredOn, "date", "", "Date as YYYY-MM-DD (required)")
	createCmd.Flags().StringVar(&occurredAt, "time", "", "Time as HH:MM")
	createCmd.Flags().StringVar(&in.ImageRef, "image", "", "Image reference returned by 'reports upload'")
	for _, f := range []string{"kind", "category", "title", "location", "date"} {
		_ = createCmd.MarkFlagRequired(f)
	}
	reportsCmd.AddCommand(createCmd)

	reportsCmd.AddCommand(&cobra.Command{
		Use:   "get REPORT_ID",
		Short: "Get a report by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportGet(apiFlag, tokenFlag, args[0], os.Stdout)
		},
	})

	var kind, status, category string
	var limit int
	var mine bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportList(apiFlag, tokenFlag, kind, status, category, limit, mine, os.Stdout)
		},
	}
	listCmd.Flags().StringVarP(&kind, "kind", "k", "", "Filter by kind")
	listCmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (open, matched, resolved)")
	listCmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of reports")
	listCmd.Flags().BoolVar(&mine, "mine", false, "Only my reports (ignores filters)")
	reportsCmd.AddCommand(listCmd)

	reportsCmd.AddCommand(&cobra.Command{
		Use:   "resolve REPORT_ID",
		Short: "Mark one of your reports resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportResolve(apiFlag, tokenFlag, args[0], os.Stdout)
		},
	})

	reportsCmd.AddCommand(&cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a photo and print its image reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImageUpload(apiFlag, tokenFlag, args[0], os.Stdout)
		},
	})

	rootCmd.AddCommand(reportsCmd)
}
