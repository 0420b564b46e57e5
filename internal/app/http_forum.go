package app

import (
	"net/http"
	"strings"
)

// routeForums dispatches /api/forums/..., /api/posts/{id}, and
// /api/reply-targets/{thread}. parts starts at the resource segment.
func (s *HTTPServer) routeForums(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if parts[0] == "posts" {
		if len(parts) == 2 && r.Method == http.MethodPut {
			s.handleUpdatePost(w, r, session, parts[1])
			return
		}
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	if parts[0] == "reply-targets" {
		if len(parts) == 2 && r.Method == http.MethodGet {
			exclude := strings.TrimSpace(r.URL.Query().Get("exclude"))
			payload, err := s.service.ReplyTargets(r.Context(), session, parts[1], exclude)
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, payload)
			return
		}
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.ListForums(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 1 && r.Method == http.MethodPost:
		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateForum(r.Context(), session, body.Name, body.Description)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 2 && r.Method == http.MethodGet:
		payload, err := s.service.GetForumBySlug(r.Context(), session, parts[1])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 3 && parts[2] == "threads" && r.Method == http.MethodPost:
		var body struct {
			Subject string `json:"subject"`
			Body    string `json:"body"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreateThread(r.Context(), session, parts[1], body.Subject, body.Body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 4 && parts[2] == "threads" && r.Method == http.MethodGet:
		payload, err := s.service.GetThread(r.Context(), session, parts[1], parts[3])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 5 && parts[2] == "threads" && parts[4] == "posts" && r.Method == http.MethodPost:
		var body struct {
			Subject string  `json:"subject"`
			Body    string  `json:"body"`
			ReplyTo *string `json:"replyTo"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreatePost(r.Context(), session, parts[1], parts[3], body.Subject, body.Body, body.ReplyTo)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleUpdatePost(w http.ResponseWriter, r *http.Request, session Session, postID string) {
	var body struct {
		Subject string  `json:"subject"`
		Body    string  `json:"body"`
		ReplyTo *string `json:"replyTo"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	payload, err := s.service.UpdatePost(r.Context(), session, postID, body.Subject, body.Body, body.ReplyTo)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
