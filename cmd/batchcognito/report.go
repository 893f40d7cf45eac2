package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"batchcognito/internal/services/groups/domain"
)

// writeSummary prints the run summary as a table or as indented JSON
func writeSummary(w io.Writer, format string, sum domain.Summary) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range domain.Kinds() {
		fmt.Fprintf(tw, "%s\t%d\n", k, sum.Counts.Get(k))
	}
	fmt.Fprintf(tw, "total\t%d\n", sum.Counts.Total())
	if len(sum.Problems) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "EMAIL\tGROUP\tRESULT\tATTEMPTS\tREASON")
		for _, p := range sum.Problems {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", p.Task.Email, p.Task.Group, p.Kind, p.Attempts, p.Reason)
		}
	}
	return tw.Flush()
}
