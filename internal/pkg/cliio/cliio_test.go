// Copyright 2026 Peter Edge
//
// All rights reserved.

package cliio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for input, want := range map[string]Format{
		"text":  FormatText,
		"TABLE": FormatTable,
		"csv":   FormatCSV,
		"Json":  FormatJSON,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}
	_, err := ParseFormat("yaml")
	require.ErrorContains(t, err, "unknown format")
}

func TestWriteTableWithTotals(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	require.NoError(t, WriteTableWithTotals(
		&buffer,
		[]string{"YEAR", "CAPITAL GAINS"},
		[][]string{{"2021", "$1,100.00"}, {"2022", "-$5.00"}},
		[]string{"TOTAL", "$1,095.00"},
	))
	require.Equal(t, `YEAR   CAPITAL GAINS
2021   $1,100.00
2022   -$5.00
       
TOTAL  $1,095.00
`, buffer.String())
}

func TestWriteLinesAndJSON(t *testing.T) {
	t.Parallel()
	var buffer bytes.Buffer
	require.NoError(t, WriteLines(&buffer, []string{"a", "b"}))
	require.NoError(t, WriteJSON(&buffer, map[string]string{"year": "2021"}))
	require.Equal(t, "a\nb\n{\"year\":\"2021\"}\n", buffer.String())
}
