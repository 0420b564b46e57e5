package app

import (
	"context"
	"net/http"
	"time"

	"commonroof/api/internal/export"
)

// routeDirectory dispatches the membership directory: members, units,
// committees, moves, and block representatives.
func (s *HTTPServer) routeDirectory(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch parts[0] {
	case "profile":
		if len(parts) == 1 && r.Method == http.MethodGet {
			payload, err := s.service.Profile(r.Context(), session)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}
	case "members":
		s.routeMembers(w, r, session, parts[1:])
		return
	case "units":
		s.routeUnits(w, r, session, parts[1:])
		return
	case "committees":
		s.routeCommittees(w, r, session, parts[1:])
		return
	case "moves":
		s.routeMoves(w, r, session, parts[1:])
		return
	case "representatives":
		s.routeRepresentatives(w, r, session, parts[1:])
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) routeMembers(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) == 1 && r.Method == http.MethodGet {
		switch parts[0] {
		case "export.csv":
			s.handleMembershipExport(w, r, session, export.FormatCSV)
			return
		case "export.pdf":
			s.handleMembershipExport(w, r, session, export.FormatPDF)
			return
		}
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListMembers(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 0 && r.Method == http.MethodPost:
		var body PersonInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateMember(r.Context(), session, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetMember(r.Context(), session, parts[0])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 1 && r.Method == http.MethodPut:
		var body PersonInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateMember(r.Context(), session, parts[0], body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 2 && parts[1] == "children" && r.Method == http.MethodPost:
		var body struct {
			ChildID string `json:"childId"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.AddMemberChild(r.Context(), session, parts[0], body.ChildID); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(parts) == 3 && parts[1] == "children" && r.Method == http.MethodDelete:
		if err := s.service.RemoveMemberChild(r.Context(), session, parts[0], parts[2]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case len(parts) == 2 && parts[1] == "phones" && r.Method == http.MethodPost:
		var body struct {
			Number string `json:"number"`
			Type   string `json:"type"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.AddMemberPhone(r.Context(), session, parts[0], body.Number, body.Type)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 3 && parts[1] == "phones" && r.Method == http.MethodDelete:
		if err := s.service.RemoveMemberPhone(r.Context(), session, parts[0], parts[2]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleMembershipExport(w http.ResponseWriter, r *http.Request, session Session, format export.Format) {
	// PDF rendering shells out to a browser; give it room.
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	result, err := s.service.ExportMembershipList(ctx, session, format)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
	w.Header().Set("Content-Type", result.MimeType)
	w.Write(result.Data)
}

func (s *HTTPServer) routeUnits(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListUnits(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 0 && r.Method == http.MethodPost:
		var body UnitInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateUnit(r.Context(), session, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetUnit(r.Context(), session, parts[0])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 1 && r.Method == http.MethodPut:
		var body UnitInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateUnit(r.Context(), session, parts[0], body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeCommittees(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListCommittees(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 0 && r.Method == http.MethodPost:
		var body CommitteeInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateCommittee(r.Context(), session, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetCommitteeBySlug(r.Context(), session, parts[0])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 1 && r.Method == http.MethodPut:
		var body CommitteeInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateCommittee(r.Context(), session, parts[0], body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeMoves(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListMoves(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 0 && r.Method == http.MethodPost:
		var body MoveInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateMove(r.Context(), session, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetMove(r.Context(), session, parts[0])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 1 && r.Method == http.MethodPut:
		var body MoveInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateMove(r.Context(), session, parts[0], body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeRepresentatives(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListBlockRepresentatives(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 0 && r.Method == http.MethodPost:
		var body struct {
			BlockNumber int    `json:"blockNumber"`
			PersonID    string `json:"personId"`
			Role        string `json:"role"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateBlockRepresentative(r.Context(), session, body.BlockNumber, body.PersonID, body.Role)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteBlockRepresentative(r.Context(), session, parts[0]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}
