package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/bft-labs/slprescale/pkg/slprescale"
)

func printSummary(w io.Writer, output string, sum slprescale.Summary) {
	fmt.Fprintf(w, "wrote %s (%s)\n", output, sum.Scale)
	for _, t := range sum.Tables {
		fmt.Fprintf(w, "  %-12s %s/%s points rescaled\n", t.Name+":", humanize.Comma(int64(t.Rescaled)), humanize.Comma(int64(t.Total)))
	}
	for _, v := range sum.Videos {
		fmt.Fprintf(w, "  %-12s %s/%s frames resized (%s)", v.Name+":", humanize.Comma(int64(v.Resized)), humanize.Comma(int64(v.Frames)), v.Format)
		if v.Kept > 0 {
			fmt.Fprintf(w, ", %d kept at original size", v.Kept)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "  %-12s %d/%d records updated\n", "metadata:", sum.MetadataUpdated, sum.MetadataTotal)
}

func printBatch(w io.Writer, sum slprescale.BatchSummary) {
	fmt.Fprintf(w, "%d found, %d resized, %d skipped, %d failed, %s frames\n",
		sum.Found, sum.Resized, sum.Skipped, sum.Failed, humanize.Comma(sum.Frames))
}

func printReport(w io.Writer, r *slprescale.Report) {
	fmt.Fprintf(w, "%s (%s)\n", r.Path, r.SizeHuman)
	fmt.Fprintf(w, "keys: %s\n", strings.Join(r.Keys, ", "))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(r.Tables) > 0 {
		fmt.Fprintln(tw, "\nTABLE\tPOINTS\tMISSING\tX RANGE\tY RANGE")
		for _, t := range r.Tables {
			xr, yr := "-", "-"
			if t.Bounds != nil {
				xr = fmt.Sprintf("%.1f..%.1f", t.Bounds.MinX, t.Bounds.MaxX)
				yr = fmt.Sprintf("%.1f..%.1f", t.Bounds.MinY, t.Bounds.MaxY)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.Name, humanize.Comma(int64(t.Total)), humanize.Comma(int64(t.Missing)), xr, yr)
		}
	}
	if len(r.Records) > 0 {
		fmt.Fprintln(tw, "\nVIDEO\tFILENAME\tSHAPE\tSOURCE SHAPE")
		for _, v := range r.Records {
			name := v.Filename
			if !v.Valid {
				name = "(invalid json)"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", v.Index, name, formatShape(v.Shape), formatShape(v.SourceShape))
		}
	}
	if len(r.Videos) > 0 {
		fmt.Fprintln(tw, "\nEMBEDDED\tFORMAT\tFRAMES\tSIZE\tMIN\tMAX")
		for _, v := range r.Videos {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", v.Name, v.Format, v.Frames, v.TotalHuman,
				humanize.Bytes(uint64(v.MinBytes)), humanize.Bytes(uint64(v.MaxBytes)))
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\nlabeled frames: %s\n", humanize.Comma(int64(r.LabeledFrames)))
	if r.BrokenCount > 0 {
		fmt.Fprintf(w, "broken video references: %d\n", r.BrokenCount)
		for _, b := range r.BrokenRefs {
			fmt.Fprintf(w, "  frame %d -> video %d\n", b.Frame, b.Video)
		}
		if r.BrokenCount > len(r.BrokenRefs) {
			fmt.Fprintf(w, "  ... and %d more\n", r.BrokenCount-len(r.BrokenRefs))
		}
	}
}

func printHistory(w io.Writer, path string, runs []slprescale.Run) {
	if path == "" {
		fmt.Fprintln(w, "run ledger disabled")
		return
	}
	if len(runs) == 0 {
		fmt.Fprintf(w, "no runs recorded in %s\n", path)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tKIND\tSCALE\tINPUT\tOUTPUT\tID")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.Time(run.CreatedAt), run.Kind, run.Scale, run.Input, run.Output, shortID(run.ID))
	}
	tw.Flush()
}

func formatShape(shape []int64) string {
	if len(shape) == 0 {
		return "-"
	}
	parts := make([]string, len(shape))
	for i, v := range shape {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
