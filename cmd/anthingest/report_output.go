package main

import (
	"fmt"
	"io"

	"anthingest/internal/ingest"
)

func printReport(w io.Writer, report *ingest.Report, pretty, dryRun bool) {
	verb := "Inserted"
	if dryRun {
		verb = "Would insert"
	}

	if len(report.Insertions) == 0 {
		fmt.Fprintln(w, "Nothing to insert")
	} else if pretty {
		rows := make([][]string, 0, len(report.Insertions))
		for _, ins := range report.Insertions {
			rows = append(rows, []string{ins.AnthologyID, ins.Reference, ins.Document})
		}
		fmt.Fprintln(w, renderTable(
			[]tableColumn{{header: "ID"}, {header: "REFERENCE"}, {header: "DOCUMENT"}},
			rows,
		))
	} else {
		for _, ins := range report.Insertions {
			fmt.Fprintf(w, "%s %s -> %s\n", verb, ins.Reference, ins.Document)
		}
	}

	for _, name := range report.SkippedFiles {
		fmt.Fprintf(w, "Skipped unrecognized file %s\n", name)
	}
	for _, id := range report.MissingPapers {
		fmt.Fprintf(w, "Skipped %s: paper not found\n", id)
	}
	for _, ref := range report.AlreadyPresent {
		fmt.Fprintf(w, "Skipped %s: reference already present\n", ref)
	}

	fmt.Fprintf(w, "%s %d video reference(s) across %d document(s)\n",
		verb, len(report.Insertions), len(report.Documents))
}
