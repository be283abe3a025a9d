package main

import (
	"fmt"
	"strings"

	"floorplan/internal/floorplan/geometry"
	"floorplan/internal/floorplan/models"

	"github.com/spf13/cobra"
)

var combineApply bool

// combineCheckCmd reports whether the given tables may be merged
var combineCheckCmd = &cobra.Command{
	Use:   "combine-check TABLE_ID...",
	Short: "Check whether tables can be combined",
	Long: `Every table must have another selected table within the adjacency
threshold (center distance). Prints isolated tables and adjacency clusters.
With --apply the combination is submitted to the API.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCombineCheck,
}

func init() {
	combineCheckCmd.Flags().BoolVar(&combineApply, "apply", false, "combine the tables when the check passes")
}

func runCombineCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c := apiClient()
	all, err := c.ListTables(ctx)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	selected, err := pickTables(all, args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	threshold := cliCfg.Editor.AdjacencyThreshold

	clusters := geometry.Clusters(selected, threshold)
	for i, cl := range clusters {
		fmt.Fprintf(out, "cluster %d: %s\n", i+1, strings.Join(numbers(selected, cl), ", "))
	}
	if iso := geometry.Isolated(selected, threshold); len(iso) > 0 {
		fmt.Fprintf(out, "isolated: %s\n", strings.Join(numbers(selected, iso), ", "))
	}

	if err := geometry.CheckCombine(selected, threshold); err != nil {
		return err
	}
	fmt.Fprintln(out, "ok: tables can be combined")

	if !combineApply {
		return nil
	}
	res, err := c.Combine(ctx, args)
	if err != nil {
		return fmt.Errorf("combine: %w", err)
	}
	fmt.Fprintf(out, "combined into group %s\n", res.GroupID)
	return nil
}

// pickTables возвращает столы в порядке переданных id.
func pickTables(all []models.Table, ids []string) ([]models.Table, error) {
	byID := make(map[string]models.Table, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}

	out := make([]models.Table, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("table %s not found", id)
		}
		out = append(out, t)
	}
	return out, nil
}

func numbers(tables []models.Table, ids []string) []string {
	byID := make(map[string]string, len(tables))
	for _, t := range tables {
		byID[t.ID] = t.TableNumber
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n := byID[id]; n != "" {
			out = append(out, "#"+n)
		} else {
			out = append(out, id)
		}
	}
	return out
}
