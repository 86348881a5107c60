package cli

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Table is column-aligned tabular CLI output parsed into structured rows.
// Columns preserves the header order; each row maps header name to the
// trimmed cell value.
type Table struct {
	Columns []string
	Rows    []map[string]string
}

// PS lists containers by parsing the table `docker ps` prints. A failure
// matching the not-found signature yields an empty listing rather than an
// error; anything else propagates with full diagnostics.
func (r *Runtime) PS(ctx context.Context) (*Table, error) {
	res, err := r.runDocker(ctx, "ps", "")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		stderr := strings.TrimSpace(res.Stderr)
		if strings.HasPrefix(strings.ToLower(stderr), "error: no such") {
			slog.Warn("runtime reported a missing object during listing", "stderr", stderr)
			return &Table{}, nil
		}
		return nil, r.cliError("ps", res)
	}
	return parseTable(res.Stdout), nil
}

// Header fields are separated by runs of two or more spaces; a field itself
// may contain single spaces ("CONTAINER ID").
var columnRE = regexp.MustCompile(`\S+(?: \S+)*`)

// parseTable slices each data line at the header's column offsets.
func parseTable(out string) *Table {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return &Table{}
	}

	header := lines[0]
	spans := columnRE.FindAllStringIndex(header, -1)
	table := &Table{Columns: make([]string, 0, len(spans))}
	for _, span := range spans {
		table.Columns = append(table.Columns, header[span[0]:span[1]])
	}

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		row := make(map[string]string, len(spans))
		for i, span := range spans {
			start := span[0]
			if start > len(line) {
				start = len(line)
			}
			end := len(line)
			if i+1 < len(spans) && spans[i+1][0] < end {
				end = spans[i+1][0]
			}
			row[table.Columns[i]] = strings.TrimSpace(line[start:end])
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
