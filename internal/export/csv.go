package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

var csvHeader = []string{
	"Block Number",
	"Unit Number",
	"Name",
	"Children",
	"Phone Number",
	"Email Address",
	"Committee(s)",
	"Chairship(s)",
}

// renderCSV flattens the roster into one record per member.
func renderCSV(roster Roster) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for _, block := range roster.Blocks {
		for _, unit := range block.Units {
			for _, m := range unit.Members {
				record := []string{
					strconv.Itoa(block.BlockNumber),
					strconv.Itoa(unit.UnitNumber),
					m.Name,
					m.Children,
					m.Phones,
					m.Email,
					m.Committees,
					m.Chairships,
				}
				if err := w.Write(record); err != nil {
					return nil, fmt.Errorf("write csv record: %w", err)
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
