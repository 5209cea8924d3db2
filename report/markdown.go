package report

import (
	"fmt"
	"strings"
	"time"
)

// Markdown renders the summary as a GitHub-flavored Markdown document with a
// result table mirroring the matrix document plus confidence and verdict
// columns. Unlike CSV, table cells escape the pipe character so file names
// cannot break the table structure.
func (s *Summary) Markdown() []byte {
	var b strings.Builder
	b.WriteString("# OCR Keyword Scan\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", s.RunID)
	fmt.Fprintf(&b, "- Source: `%s`\n", s.SourceDir)
	if s.OutputFile != "" {
		fmt.Fprintf(&b, "- Output: `%s`\n", s.OutputFile)
	}
	fmt.Fprintf(&b, "- Engine: %s\n", s.EngineName)
	fmt.Fprintf(&b, "- Keywords: %s\n", keywordList(s.Keywords))
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- Started: %s\n", s.StartedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "- Elapsed: %s\n", s.Elapsed.Round(time.Millisecond))

	if s.Totals.Images == 0 {
		b.WriteString("\nNo supported images were found in the source directory.\n")
		return []byte(b.String())
	}

	b.WriteString("\n## Results\n\n")
	s.writeResultTable(&b)

	if len(s.Failures) > 0 {
		b.WriteString("\n## Failures\n\n")
		b.WriteString("| Case | Reason |\n| --- | --- |\n")
		for _, failure := range s.Failures {
			fmt.Fprintf(&b, "| %s | %s |\n", mdCell(failure.Case), mdCell(failure.Reason))
		}
	}

	b.WriteString("\n## Totals\n\n")
	fmt.Fprintf(&b, "- Images attempted: %d\n", s.Totals.Images)
	fmt.Fprintf(&b, "- Keyword checks: %d\n", s.Totals.Checks)
	fmt.Fprintf(&b, "- Matches: %d\n", s.Totals.Matches)
	fmt.Fprintf(&b, "- Average match: %.2f%%\n", s.Totals.AverageMatchPercent())
	fmt.Fprintf(&b, "- Succeeded: %d\n", s.Totals.Succeeded)
	fmt.Fprintf(&b, "- Failed: %d\n", s.Totals.Failed)
	if s.Totals.Duplicates > 0 {
		fmt.Fprintf(&b, "- Duplicate contents: %d\n", s.Totals.Duplicates)
	}
	return []byte(b.String())
}

func (s *Summary) writeResultTable(b *strings.Builder) {
	withVerdicts := false
	for _, entry := range s.Entries {
		if entry.Verdict != "" {
			withVerdicts = true
			break
		}
	}

	b.WriteString("| Case |")
	for _, keyword := range s.Keywords {
		fmt.Fprintf(b, " %s |", mdCell(keyword))
	}
	b.WriteString(" Confidence |")
	if withVerdicts {
		b.WriteString(" Verdict |")
	}
	b.WriteByte('\n')

	b.WriteString("| --- |")
	for range s.Keywords {
		b.WriteString(" --- |")
	}
	b.WriteString(" --- |")
	if withVerdicts {
		b.WriteString(" --- |")
	}
	b.WriteByte('\n')

	for _, entry := range s.Entries {
		fmt.Fprintf(b, "| %s |", mdCell(entry.Case))
		for _, keyword := range s.Keywords {
			if entry.Statuses[keyword] {
				b.WriteString(" found |")
			} else {
				b.WriteString(" not found |")
			}
		}
		if entry.Confidence > 0 {
			fmt.Fprintf(b, " %.1f%% |", entry.Confidence*100)
		} else {
			b.WriteString(" - |")
		}
		if withVerdicts {
			fmt.Fprintf(b, " %s |", mdCell(entry.Verdict))
		}
		b.WriteByte('\n')
	}
}

func keywordList(keywords []string) string {
	if len(keywords) == 0 {
		return "(none)"
	}
	quoted := make([]string, len(keywords))
	for i, keyword := range keywords {
		quoted[i] = "`" + keyword + "`"
	}
	return strings.Join(quoted, ", ")
}

func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
