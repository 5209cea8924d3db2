package report

import "strings"

// CSV serializes entries into the keyword matrix document. The first line is
// the header, "Case" followed by the keywords in configured order; each entry
// then contributes one line with its file name and a found / not found cell
// per keyword. A keyword absent from an entry's status map serializes as not
// found. Lines are joined with "\n" and the document carries no trailing
// newline, so an empty entry slice yields exactly the header line.
//
// Cells are written raw. A comma or newline inside a file name or keyword is
// not quoted or escaped; the matrix format predates this implementation and
// its consumers split rows on bare commas.
func CSV(entries []Entry, keywords []string) string {
	var b strings.Builder
	b.WriteString("Case")
	for _, keyword := range keywords {
		b.WriteByte(',')
		b.WriteString(keyword)
	}
	for _, entry := range entries {
		b.WriteByte('\n')
		b.WriteString(entry.Case)
		for _, keyword := range keywords {
			if entry.Statuses[keyword] {
				b.WriteString(",found")
			} else {
				b.WriteString(",not found")
			}
		}
	}
	return b.String()
}
