package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"commonroof/api/internal/store"
)

type fakeDataStore struct {
	listMemberRows           func(ctx context.Context) ([]store.MemberRow, error)
	listBlockRepresentatives func(ctx context.Context) ([]store.BlockRepresentative, error)
	personDisplayName        func(ctx context.Context, personID string) (string, error)
}

func (f *fakeDataStore) ListMemberRows(ctx context.Context) ([]store.MemberRow, error) {
	return f.listMemberRows(ctx)
}

func (f *fakeDataStore) ListBlockRepresentatives(ctx context.Context) ([]store.BlockRepresentative, error) {
	return f.listBlockRepresentatives(ctx)
}

func (f *fakeDataStore) PersonDisplayName(ctx context.Context, personID string) (string, error) {
	return f.personDisplayName(ctx, personID)
}

func sampleRows() []store.MemberRow {
	return []store.MemberRow{
		{
			BlockNumber: 1701,
			UnitNumber:  101,
			PersonID:    "person_a",
			Name:        "Ada Brown",
			Children:    []string{"Finn Brown"},
			Phones:      []string{"604-555-0101", "604-555-0199 (cell)"},
			Email:       "ada@example.com",
			Committees:  []string{"Co-op", "Finance", "Grounds"},
			Chairships:  []string{"Finance"},
		},
		{
			BlockNumber: 1701,
			UnitNumber:  101,
			PersonID:    "person_b",
			Name:        "Ben Brown",
			Phones:      []string{"604-555-0101", "604-555-0177 (cell)"},
			Email:       "ben@example.com",
			Committees:  []string{"Co-op", "Maintenance"},
		},
		{
			BlockNumber:      1701,
			UnitNumber:       103,
			PersonID:         "person_c",
			Name:             "Cora Diaz",
			Phones:           []string{"604-555-0133"},
			Email:            "cora@example.com",
			Committees:       []string{"Co-op", "Finance"},
			CommitteeExcused: true,
		},
		{
			BlockNumber: 1715,
			UnitNumber:  105,
			PersonID:    "person_d",
			Name:        "Dev Singh",
			Email:       "dev@example.com",
			Committees:  []string{"Co-op"},
		},
	}
}

func TestBuildRosterGroupsByBlockAndUnit(t *testing.T) {
	reps := map[string]string{
		"1701/roof monitor": "Ada Brown",
		"1715/maintenance":  "Dev Singh",
	}
	roster := BuildRoster("Cedar Grove", sampleRows(), reps, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	if len(roster.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(roster.Blocks))
	}

	block := roster.Blocks[0]
	if block.BlockNumber != 1701 {
		t.Errorf("expected block 1701 first, got %d", block.BlockNumber)
	}
	if block.RoofMonitor != "Ada Brown" {
		t.Errorf("expected roof monitor Ada Brown, got %q", block.RoofMonitor)
	}
	if len(block.Units) != 2 {
		t.Fatalf("expected 2 units in block 1701, got %d", len(block.Units))
	}
	if len(block.Units[0].Members) != 2 {
		t.Errorf("expected 2 members in unit 101, got %d", len(block.Units[0].Members))
	}

	if roster.Blocks[1].Maintenance != "Dev Singh" {
		t.Errorf("expected maintenance rep Dev Singh, got %q", roster.Blocks[1].Maintenance)
	}
}

func TestBuildRosterDeduplicatesHouseholdPhones(t *testing.T) {
	roster := BuildRoster("Cedar Grove", sampleRows(), nil, time.Now())

	unit := roster.Blocks[0].Units[0]
	if got := unit.Members[0].Phones; got != "604-555-0101, 604-555-0199 (cell)" {
		t.Errorf("first member phones = %q", got)
	}
	// The shared landline already appeared on the first member's row.
	if got := unit.Members[1].Phones; got != "604-555-0177 (cell)" {
		t.Errorf("second member phones = %q", got)
	}
}

func TestBuildRosterCommitteeFormatting(t *testing.T) {
	roster := BuildRoster("Cedar Grove", sampleRows(), nil, time.Now())

	ada := roster.Blocks[0].Units[0].Members[0]
	if ada.Committees != "Finance, Grounds" {
		t.Errorf("expected Co-op committee hidden, got %q", ada.Committees)
	}
	if ada.Chairships != "Finance" {
		t.Errorf("chairships = %q", ada.Chairships)
	}

	cora := roster.Blocks[0].Units[1].Members[0]
	if cora.Committees != "EXCUSED BY BOARD" {
		t.Errorf("excused member committees = %q", cora.Committees)
	}

	dev := roster.Blocks[1].Units[0].Members[0]
	if dev.Committees != "" {
		t.Errorf("Co-op-only member committees = %q", dev.Committees)
	}
}

func TestExportMembershipListCSV(t *testing.T) {
	st := &fakeDataStore{
		listMemberRows: func(ctx context.Context) ([]store.MemberRow, error) {
			return sampleRows(), nil
		},
		listBlockRepresentatives: func(ctx context.Context) ([]store.BlockRepresentative, error) {
			return []store.BlockRepresentative{
				{ID: "rep_1", BlockNumber: 1701, PersonID: "person_a", Role: "roof monitor"},
			}, nil
		},
		personDisplayName: func(ctx context.Context, personID string) (string, error) {
			return "Ada Brown", nil
		},
	}

	svc := NewService(st, "Cedar Grove")
	result, err := svc.ExportMembershipList(context.Background(), FormatCSV)
	if err != nil {
		t.Fatalf("ExportMembershipList failed: %v", err)
	}

	if result.Filename != "Cedar-Grove-membership-list.csv" {
		t.Errorf("filename = %q", result.Filename)
	}
	if result.MimeType != "text/csv" {
		t.Errorf("mime type = %q", result.MimeType)
	}

	lines := strings.Split(strings.TrimSpace(string(result.Data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 records, got %d lines", len(lines))
	}
	if lines[0] != "Block Number,Unit Number,Name,Children,Phone Number,Email Address,Committee(s),Chairship(s)" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"604-555-0101, 604-555-0199 (cell)"`) {
		t.Errorf("expected quoted phone list in first record: %q", lines[1])
	}
	if !strings.Contains(lines[3], "EXCUSED BY BOARD") {
		t.Errorf("expected excused marker in third record: %q", lines[3])
	}
}

func TestRenderRosterHTML(t *testing.T) {
	reps := map[string]string{"1701/roof monitor": "Ada Brown"}
	roster := BuildRoster("Cedar Grove", sampleRows(), reps, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	html, err := RenderRosterHTML(roster)
	if err != nil {
		t.Fatalf("RenderRosterHTML failed: %v", err)
	}

	for _, want := range []string{
		"Cedar Grove Membership List",
		"Block 1701",
		"Block 1715",
		"Roof monitor: Ada Brown",
		"Ada Brown",
		"EXCUSED BY BOARD",
		"Generated Mar 1, 2026",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered roster missing %q", want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Cedar Grove membership list", "Cedar-Grove-membership-list"},
		{"with/slash & symbols!", "withslash--symbols"},
		{"", "membership-list"},
		{strings.Repeat("a", 60), strings.Repeat("a", 50)},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.input); got != tt.expected {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello", "hello"},
		{"hello world", "hello%20world"},
		{"a+b", "a%2Bb"},
		{"100%", "100%25"},
	}

	for _, tt := range tests {
		if got := percentEncodeForDataURL(tt.input); got != tt.expected {
			t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
