package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"floorplan/internal/floorplan/client"
	"floorplan/internal/floorplan/models"

	"github.com/spf13/cobra"
)

var (
	listSection string
	listStatus  string
)

// listCmd prints the tables of the organization with summary stats
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tables and occupancy stats",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listSection, "section", "", "filter by section")
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (available, occupied, reserved, cleaning)")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	list, err := apiClient().List(ctx, client.Filter{
		Section: listSection,
		Status:  models.Status(listStatus),
	})
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	return printTables(cmd.OutOrStdout(), list.Tables, list.Stats)
}

func printTables(w io.Writer, tables []models.Table, stats models.Stats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tSHAPE\tSEATS\tSTATUS\tSECTION\tPOSITION\tGROUP\tID")
	for _, t := range tables {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t(%.0f, %.0f) %.0f°\t%s\t%s\n",
			t.TableNumber, t.Shape, t.Capacity, t.Status, t.Section,
			t.X, t.Y, t.Rotation, t.CombinedGroup, t.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%d tables, %d seats, %d occupied seats (%.1f%%)\n",
		stats.Total, stats.TotalCapacity, stats.OccupiedSeats, stats.OccupancyRate)
	return err
}
