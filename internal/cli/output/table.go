// Package output renders tabular CLI output for the identify/list
// subcommands (spec §6.3), adapted from the donor's tablewriter
// wrapper.
package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as
// a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a formatted table to w.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
	return nil
}

// ResourceTable renders Identify results for the list subcommand.
type ResourceTable struct {
	rows [][]string
}

// NewResourceTable creates an empty ResourceTable.
func NewResourceTable() *ResourceTable {
	return &ResourceTable{}
}

// Add appends one resource's identify fields as a row.
func (t *ResourceTable) Add(iri, kind, size, ttl, created string) {
	t.rows = append(t.rows, []string{iri, kind, size, ttl, created})
}

// Headers implements TableRenderer.
func (t *ResourceTable) Headers() []string {
	return []string{"IRI", "Kind", "Size", "TTL", "Created"}
}

// Rows implements TableRenderer.
func (t *ResourceTable) Rows() [][]string { return t.rows }
