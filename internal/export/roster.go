package export

import (
	"fmt"
	"strings"
	"time"

	"commonroof/api/internal/store"
)

const (
	repRoleRoofMonitor = "roof monitor"
	repRoleMaintenance = "maintenance"
)

// boardCommittee is implicit (every member belongs) and is left off the
// printed list.
const boardCommittee = "Co-op"

// BuildRoster groups member rows by block, then by unit. Rows must
// already be sorted by block and unit, which ListMemberRows guarantees.
// repNames maps "<block>/<role>" to a display name.
func BuildRoster(coopName string, rows []store.MemberRow, repNames map[string]string, now time.Time) Roster {
	roster := Roster{CoopName: coopName, GeneratedAt: now}

	for _, row := range rows {
		block := currentBlock(&roster, row.BlockNumber, repNames)
		unit := currentUnit(block, row.UnitNumber)
		unit.Members = append(unit.Members, formatMember(row))
	}

	// Household phone numbers repeat across partners; print each once
	// per unit.
	for b := range roster.Blocks {
		for u := range roster.Blocks[b].Units {
			dedupeUnitPhones(&roster.Blocks[b].Units[u])
		}
	}

	return roster
}

func currentBlock(roster *Roster, blockNumber int, repNames map[string]string) *BlockGroup {
	if n := len(roster.Blocks); n > 0 && roster.Blocks[n-1].BlockNumber == blockNumber {
		return &roster.Blocks[n-1]
	}
	roster.Blocks = append(roster.Blocks, BlockGroup{
		BlockNumber: blockNumber,
		RoofMonitor: repNames[repKey(blockNumber, repRoleRoofMonitor)],
		Maintenance: repNames[repKey(blockNumber, repRoleMaintenance)],
	})
	return &roster.Blocks[len(roster.Blocks)-1]
}

func currentUnit(block *BlockGroup, unitNumber int) *UnitGroup {
	if n := len(block.Units); n > 0 && block.Units[n-1].UnitNumber == unitNumber {
		return &block.Units[n-1]
	}
	block.Units = append(block.Units, UnitGroup{UnitNumber: unitNumber})
	return &block.Units[len(block.Units)-1]
}

func repKey(blockNumber int, role string) string {
	return fmt.Sprintf("%d/%s", blockNumber, role)
}

func formatMember(row store.MemberRow) Member {
	return Member{
		Name:       row.Name,
		Children:   strings.Join(row.Children, ", "),
		Phones:     strings.Join(row.Phones, ", "),
		Email:      row.Email,
		Committees: formatCommittees(row),
		Chairships: strings.Join(row.Chairships, ", "),
	}
}

func formatCommittees(row store.MemberRow) string {
	if row.CommitteeExcused {
		return "EXCUSED BY BOARD"
	}
	var names []string
	for _, name := range row.Committees {
		if name == boardCommittee {
			continue
		}
		names = append(names, name)
	}
	return strings.Join(names, ", ")
}

func dedupeUnitPhones(unit *UnitGroup) {
	seen := make(map[string]bool)
	for i := range unit.Members {
		var kept []string
		for _, phone := range strings.Split(unit.Members[i].Phones, ", ") {
			if phone == "" || seen[phone] {
				continue
			}
			seen[phone] = true
			kept = append(kept, phone)
		}
		unit.Members[i].Phones = strings.Join(kept, ", ")
	}
}
