package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewCatalogCmd создаёт группу команд каталога.
func NewCatalogCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse backend catalog data",
	}

	cmd.AddCommand(
		newCatalogOwnersCmd(clientFn, outputFn),
		newCatalogCranesCmd(clientFn, outputFn),
		newCatalogModelsCmd(clientFn, outputFn),
		newCatalogRequestsCmd(clientFn, outputFn),
		newCatalogRespondCmd(clientFn, outputFn),
	)

	return cmd
}

func newCatalogOwnersCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "List crane owners with statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			owners, err := client.ListOwners()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "CRANES", "AVAILABLE"}
			rows := make([][]string, len(owners))
			for i, o := range owners {
				rows[i] = []string{o.ID, o.Name, strconv.Itoa(o.TotalCranes), strconv.Itoa(o.AvailableCranes)}
			}

			out.Print(headers, rows, owners)
			return nil
		},
	}
}

func newCatalogCranesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "cranes OWNER_ID",
		Short: "List cranes of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			cranes, err := client.ListCranes(args[0], status)
			if err != nil {
				return err
			}

			headers := []string{"ID", "MODEL", "SERIAL", "STATUS"}
			rows := make([][]string, len(cranes))
			for i, c := range cranes {
				rows[i] = []string{c.ID, c.ModelName, c.SerialNo, c.Status}
			}

			out.Print(headers, rows, cranes)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by crane status (e.g. NORMAL)")

	return cmd
}

func newCatalogModelsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List crane models",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			models, err := client.ListCraneModels()
			if err != nil {
				return err
			}

			headers := []string{"ID", "MODEL", "CAPACITY", "HEIGHT", "RADIUS"}
			rows := make([][]string, len(models))
			for i, m := range models {
				rows[i] = []string{
					m.ID,
					m.ModelName,
					formatFloat(m.MaxLiftingCapacityTonM),
					formatFloat(m.MaxWorkingHeightM),
					formatFloat(m.MaxWorkingRadiusM),
				}
			}

			out.Print(headers, rows, models)
			return nil
		},
	}
}

// formatFloat выводит опциональное число либо прочерк.
func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func newCatalogRequestsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List crane deploy requests for the owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			requests, err := client.ListDeployRequests(status)
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "REQUESTER", "SITE", "CRANE"}
			rows := make([][]string, len(requests))
			for i, r := range requests {
				rows[i] = []string{r.ID, r.Status, r.RequesterID, r.TargetEntityID, r.RelatedEntityID}
			}

			out.Print(headers, rows, requests)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by request status (e.g. PENDING)")

	return cmd
}

func newCatalogRespondCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var reject bool
	var notes string

	cmd := &cobra.Command{
		Use:   "respond REQUEST_ID",
		Short: "Approve or reject a deploy request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.RespondDeployRequest(args[0], !reject, notes); err != nil {
				return err
			}

			if reject {
				out.Success("Request rejected")
			} else {
				out.Success("Request approved")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&reject, "reject", false, "Reject instead of approve")
	cmd.Flags().StringVar(&notes, "notes", "", "Optional response notes")

	return cmd
}
