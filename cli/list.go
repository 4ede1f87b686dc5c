package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/factory"
	"github.com/warp/budget-engine/planning"
)

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List payoff strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := Table{Headers: []string{"Key", "Name", "Description"}}
			for _, s := range planning.Strategies() {
				t.Rows = append(t.Rows, []string{string(s.Key), s.Name, s.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(t))
			return nil
		},
	}
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			presets, err := factory.Presets()
			if err != nil {
				return err
			}
			t := Table{Headers: []string{"ID", "Name", "Strategy", "Debts", "Description"}}
			for _, sc := range presets {
				t.Rows = append(t.Rows, []string{
					sc.ID, sc.Name, string(sc.Strategy), strconv.Itoa(len(sc.Debts)), sc.Description,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), RenderTable(t))
			return nil
		},
	}
}
