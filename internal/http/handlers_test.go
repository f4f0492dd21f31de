package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend/internal/importer"
)

func TestParseDecisions(t *testing.T) {
	decisions, err := parseDecisions(`{"2": "update", "5": "skip", "9": "ERROR"}`)
	require.NoError(t, err)
	assert.Equal(t, importer.Decisions{
		2: importer.ActionUpdate,
		5: importer.ActionSkip,
		9: importer.ActionError,
	}, decisions)
}

func TestParseDecisionsEmpty(t *testing.T) {
	decisions, err := parseDecisions("  ")
	require.NoError(t, err)
	assert.Nil(t, decisions)
}

func TestParseDecisionsRejectsBadInput(t *testing.T) {
	cases := []string{
		`not json`,
		`{"2": "merge"}`,
		`{"abc": "skip"}`,
		`{"1": "skip"}`, // row 1 is the header
		`["skip"]`,
	}
	for _, raw := range cases {
		_, err := parseDecisions(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestParseOptionalInt(t *testing.T) {
	value, err := parseOptionalInt("", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, value)

	value, err = parseOptionalInt("25", 50)
	require.NoError(t, err)
	assert.Equal(t, 25, value)

	_, err = parseOptionalInt("abc", 50)
	assert.Error(t, err)
	_, err = parseOptionalInt("-1", 50)
	assert.Error(t, err)
}

func TestParseOptionalTime(t *testing.T) {
	parsed, err := parseOptionalTime("")
	require.NoError(t, err)
	assert.Nil(t, parsed)

	parsed, err = parseOptionalTime("2026-03-15")
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), *parsed)

	parsed, err = parseOptionalTime("2026-03-15T10:30:00Z")
	require.NoError(t, err)
	require.NotNil(t, parsed)

	_, err = parseOptionalTime("15/03/2026")
	assert.Error(t, err)
}
