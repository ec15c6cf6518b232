package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/porticoestate/location-hierarchy/internal/hierarchy"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatSQL  = "sql"
)

// MaxDetails caps the issue lines printed per kind in text reports
const MaxDetails = 10

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	okColor      = color.New(color.FgGreen, color.Bold)
	issueColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
)

// Formats lists the supported output formats
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatSQL}
}

// Write renders the result in the given format
func Write(w io.Writer, r *hierarchy.Result, format string, showSQL bool) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		return WriteText(w, r, showSQL)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatSQL:
		return WriteScript(w, r.SQL)
	}
	return fmt.Errorf("unsupported output format %q (want one of %s)", format, strings.Join(Formats(), ", "))
}

// WriteText prints the human readable report
func WriteText(w io.Writer, r *hierarchy.Result, showSQL bool) error {
	scope := r.Loc1
	if scope == "" {
		scope = "all properties"
	}
	headingColor.Fprintf(w, "=== Location hierarchy analysis: %s ===\n", scope)
	if r.RunTag != "" {
		fmt.Fprintf(w, "Run tag: %s\n", r.RunTag)
	}

	headingColor.Fprintln(w, "\nStatistics")
	rows := r.Statistics.Rows()
	width := 0
	for _, row := range rows {
		if len(row.Label) > width {
			width = len(row.Label)
		}
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %-*s %6d\n", width+1, row.Label+":", row.Value)
	}

	headingColor.Fprintln(w, "\nIssues")
	if r.Clean() {
		okColor.Fprintln(w, "  No issues found")
	} else {
		writeIssues(w, r.Issues)
	}

	if len(r.Warnings) > 0 {
		headingColor.Fprintf(w, "\nWarnings (%d)\n", len(r.Warnings))
		writeWarnings(w, r.Warnings)
	}

	if len(r.FixedLocationCodes) > 0 {
		headingColor.Fprintf(w, "\nFixed location codes (%d)\n", len(r.FixedLocationCodes))
		old := make([]string, 0, len(r.FixedLocationCodes))
		for code := range r.FixedLocationCodes {
			old = append(old, code)
		}
		sort.Strings(old)
		for _, code := range old {
			fmt.Fprintf(w, "  %s -> %s\n", code, r.FixedLocationCodes[code])
		}
	}

	headingColor.Fprintln(w, "\nSQL statements")
	for _, category := range hierarchy.Categories {
		fmt.Fprintf(w, "  %-30s %6d\n", category+":", len(r.SQL[category]))
	}
	if showSQL && r.SQL.Total() > 0 {
		fmt.Fprintln(w)
		return WriteScript(w, r.SQL)
	}
	return nil
}

// writeWarnings prints up to MaxDetails warnings of each kind
func writeWarnings(w io.Writer, warnings []hierarchy.Warning) {
	shown := make(map[hierarchy.WarningKind]int)
	var kinds []hierarchy.WarningKind
	for _, warning := range warnings {
		if _, seen := shown[warning.Kind]; !seen {
			kinds = append(kinds, warning.Kind)
		}
		if shown[warning.Kind] < MaxDetails {
			warnColor.Fprintf(w, "  [%s] %s\n", warning.Kind, warning.Message)
		}
		shown[warning.Kind]++
	}
	for _, kind := range kinds {
		if n := shown[kind]; n > MaxDetails {
			fmt.Fprintf(w, "  ... and %d more %s warnings\n", n-MaxDetails, kind)
		}
	}
}

func writeIssues(w io.Writer, issues []hierarchy.Issue) {
	counts := hierarchy.CountIssues(issues)
	for _, kind := range hierarchy.IssueKinds {
		if counts[kind] > 0 {
			issueColor.Fprintf(w, "  %-20s %6d\n", string(kind)+":", counts[kind])
		}
	}

	for _, kind := range hierarchy.IssueKinds {
		if counts[kind] == 0 {
			continue
		}
		fmt.Fprintf(w, "\n  %s:\n", kind)
		shown := 0
		for _, issue := range issues {
			if issue.Kind != kind {
				continue
			}
			if shown == MaxDetails {
				fmt.Fprintf(w, "    ... and %d more\n", counts[kind]-MaxDetails)
				break
			}
			fmt.Fprintf(w, "    - %s\n", issue.Describe())
			shown++
		}
	}
}

// WriteScript writes the statements as one transactional SQL script
func WriteScript(w io.Writer, batches hierarchy.Batches) error {
	if _, err := fmt.Fprintln(w, "BEGIN;"); err != nil {
		return err
	}
	for _, category := range hierarchy.Categories {
		stmts := batches[category]
		if len(stmts) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n-- %s (%d)\n", category, len(stmts))
		for _, stmt := range stmts {
			fmt.Fprintln(w, stmt)
		}
	}
	_, err := fmt.Fprintln(w, "\nCOMMIT;")
	return err
}

// WriteExecution summarises the statements run per batch
func WriteExecution(w io.Writer, counts map[string]int, verify *hierarchy.Result) {
	headingColor.Fprintln(w, "Executed statements")
	total := 0
	for _, category := range hierarchy.Categories {
		if n, ok := counts[category]; ok {
			fmt.Fprintf(w, "  %-30s %6d\n", category+":", n)
			total += n
		}
	}
	fmt.Fprintf(w, "  %-30s %6d\n", "total:", total)

	if verify == nil {
		return
	}
	if verify.Clean() {
		okColor.Fprintln(w, "Verification: no remaining issues")
		return
	}
	issueColor.Fprintf(w, "Verification: %d issues remain\n", len(verify.Issues))
	writeIssues(w, verify.Issues)
}
