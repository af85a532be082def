package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			r, err := c.rescaler()
			if err != nil {
				return err
			}
			defer r.Close()

			runs, err := r.History(ctx, limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), r.LedgerPath(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	return cmd
}
