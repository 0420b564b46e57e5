package export

import (
	"context"
	"fmt"
	"time"

	"commonroof/api/internal/store"
)

// DataStore is what the export needs from persistence.
type DataStore interface {
	ListMemberRows(ctx context.Context) ([]store.MemberRow, error)
	ListBlockRepresentatives(ctx context.Context) ([]store.BlockRepresentative, error)
	PersonDisplayName(ctx context.Context, personID string) (string, error)
}

// Service renders the membership list.
type Service struct {
	store    DataStore
	coopName string
	now      func() time.Time
}

// NewService creates an export service.
func NewService(st DataStore, coopName string) *Service {
	return &Service{store: st, coopName: coopName, now: time.Now}
}

// ExportMembershipList assembles the roster and renders it in the
// requested format.
func (s *Service) ExportMembershipList(ctx context.Context, format Format) (*Result, error) {
	rows, err := s.store.ListMemberRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	repNames, err := s.blockRepNames(ctx)
	if err != nil {
		return nil, err
	}

	roster := BuildRoster(s.coopName, rows, repNames, s.now())
	base := sanitizeFilename(s.coopName + " membership list")

	switch format {
	case FormatCSV:
		data, err := renderCSV(roster)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: base + ".csv", MimeType: "text/csv"}, nil
	case FormatPDF:
		html, err := RenderRosterHTML(roster)
		if err != nil {
			return nil, fmt.Errorf("render roster: %w", err)
		}
		data, err := renderPDF(html)
		if err != nil {
			return nil, err
		}
		return &Result{Data: data, Filename: base + ".pdf", MimeType: "application/pdf"}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func (s *Service) blockRepNames(ctx context.Context) (map[string]string, error) {
	reps, err := s.store.ListBlockRepresentatives(ctx)
	if err != nil {
		return nil, fmt.Errorf("list block representatives: %w", err)
	}

	names := make(map[string]string, len(reps))
	for _, rep := range reps {
		name, err := s.store.PersonDisplayName(ctx, rep.PersonID)
		if err != nil {
			return nil, fmt.Errorf("resolve representative %s: %w", rep.PersonID, err)
		}
		names[repKey(rep.BlockNumber, rep.Role)] = name
	}
	return names, nil
}
