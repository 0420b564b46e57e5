// Package export renders the membership list as CSV or PDF.
package export

import (
	"errors"
	"time"
)

// Format represents the export output format
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

// Roster is the membership list grouped by block, then by unit.
type Roster struct {
	CoopName    string
	GeneratedAt time.Time
	Blocks      []BlockGroup
}

// BlockGroup is one block's units plus the block's representatives.
type BlockGroup struct {
	BlockNumber int
	RoofMonitor string
	Maintenance string
	Units       []UnitGroup
}

// UnitGroup is one unit's member households.
type UnitGroup struct {
	UnitNumber int
	Members    []Member
}

// Member is one formatted row of the membership list.
type Member struct {
	Name       string
	Children   string
	Phones     string
	Email      string
	Committees string
	Chairships string
}

// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
var ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
