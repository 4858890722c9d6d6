package main

import (
	"io"
	"sort"

	"github.com/aquasecurity/table"
)

// newTable returns a table preconfigured the way the rest of plashctl's
// output renders: rounded dividers, header row, no row lines.
func newTable(w io.Writer) *table.Table {
	t := table.New(w)
	t.SetRowLines(false)
	t.SetDividers(table.UnicodeRoundedDividers)
	return t
}

func sortStrings(s []string) {
	sort.Strings(s)
}
