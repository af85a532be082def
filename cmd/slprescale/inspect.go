package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/slprescale/pkg/slprescale"
)

func (c *cli) inspectCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect INPUT",
		Short: "Report the structure of a label file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			r, err := c.rescaler()
			if err != nil {
				return err
			}
			defer r.Close()

			report, err := r.Inspect(ctx, args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), format, report)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format (text, json, yaml)")
	return cmd
}

func writeReport(w io.Writer, format string, report *slprescale.Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
		printReport(w, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
