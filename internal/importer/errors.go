package importer

import (
	"fmt"
	"strings"

	"backend/internal/domain"
)

// ParseError means the file could not be split into a header and data rows at
// all. Nothing was validated or applied.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse csv: " + e.Reason
}

// MissingColumnsError blocks an import whose header row lacks required
// columns. Matching is case-insensitive, so the names reported here are the
// canonical ones.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// ValidationBlockedError carries every row-level violation found in the file.
// The batch is never partially applied; the caller fixes the file and
// re-uploads.
type ValidationBlockedError struct {
	Rows []domain.RowError
}

func (e *ValidationBlockedError) Error() string {
	return fmt.Sprintf("%d rows failed validation", len(e.Rows))
}
