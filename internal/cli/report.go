package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/agentx-labs/pkginstall/internal/orchestrator"
)

func printReport(out io.Writer, r *orchestrator.Report) error {
	if len(r.Packages) == 0 {
		fmt.Fprintln(out, "No packages to install.")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PACKAGE\tSOURCE\tVERSION\tPREVIOUS\tSTATUS")
		for _, p := range r.Packages {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.Source, dash(p.Resolved), dash(p.Previous), p.Status)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	for _, p := range r.Packages {
		for _, warning := range p.Warnings {
			fmt.Fprintf(out, "⚠️  %s\n", warning)
		}
		if p.Err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", p.Name, p.Err)
		}
	}
	for _, dir := range r.DeletedFolders {
		fmt.Fprintf(out, "Deleted %s\n", dir)
	}

	fmt.Fprintf(out, "\n%d installed, %d up to date, %d skipped, %d failed (run %s)\n",
		r.Count(orchestrator.StatusInstalled), r.Count(orchestrator.StatusUpToDate),
		r.Count(orchestrator.StatusManagedSkip), r.Count(orchestrator.StatusFailed), r.RunID)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
