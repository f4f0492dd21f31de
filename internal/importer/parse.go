package importer

import "strings"

// File is the raw parsed shape of an upload: one header row plus data rows.
// Line numbers count from the top of the file, header included, so the first
// data row is line 2. That is the number users see in error reports.
type File struct {
	Header []string
	Rows   []Line
}

type Line struct {
	Number int
	Fields []string
}

// Parse splits raw CSV text into header and data rows. Fields are
// comma-delimited; double quotes toggle an inside-field mode so embedded
// commas survive, and the quote characters themselves are stripped.
func Parse(raw string) (*File, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var header []string
	rows := make([]Line, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitLine(line)
		if header == nil {
			header = fields
			continue
		}
		rows = append(rows, Line{Number: i + 1, Fields: fields})
	}

	if header == nil {
		return nil, &ParseError{Reason: "file has no non-blank lines"}
	}
	return &File{Header: header, Rows: rows}, nil
}

func splitLine(line string) []string {
	fields := make([]string, 0, 8)
	var field strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(field.String()))
	return fields
}
