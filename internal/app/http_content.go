package app

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"commonroof/api/internal/store"
)

// routePages dispatches /api/pages. Reads tolerate anonymous callers
// because pages can be public; the service filters visibility.
func (s *HTTPServer) routePages(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListPages(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 0 && r.Method == http.MethodPost:
		var body PageInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.CreatePage(r.Context(), session, body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, payload)

	case len(parts) == 1 && r.Method == http.MethodGet:
		payload, err := s.service.GetPageBySlug(r.Context(), session, parts[0])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 1 && r.Method == http.MethodPut:
		var body PageInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdatePage(r.Context(), session, parts[0], body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 2 && parts[1] == "history" && r.Method == http.MethodGet:
		limit := 0
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}
		payload, err := s.service.PageHistory(r.Context(), session, parts[0], limit)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 3 && parts[1] == "revisions" && r.Method == http.MethodGet:
		payload, err := s.service.PageRevision(r.Context(), session, parts[0], parts[2])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) routeFiles(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		payload, err := s.service.ListFiles(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 0 && r.Method == http.MethodPost:
		s.handleFileUpload(w, r, session)

	case len(parts) == 2 && parts[1] == "download" && r.Method == http.MethodGet:
		file, body, err := s.service.OpenFile(r.Context(), session, parts[0])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		defer body.Close()
		w.Header().Set("Content-Disposition", "attachment; filename=\""+file.Name+"\"")
		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
		_, _ = io.Copy(w, body)

	case len(parts) == 1 && r.Method == http.MethodPut:
		var body FileMetadataInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateFileMetadata(r.Context(), session, parts[0], body)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.service.DeleteFile(r.Context(), session, parts[0]); err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleFileUpload(w http.ResponseWriter, r *http.Request, session Session) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "expected multipart form upload", nil)
		return
	}
	upload, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "a file part named 'file' is required", nil)
		return
	}
	defer upload.Close()

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}
	public := r.FormValue("public") == "true"

	payload, err := s.service.UploadFile(
		r.Context(),
		session,
		name,
		r.FormValue("description"),
		header.Header.Get("Content-Type"),
		upload,
		header.Size,
		public,
	)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (s *HTTPServer) routeSettings(w http.ResponseWriter, r *http.Request, session Session, parts []string) {
	if len(parts) != 0 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		payload, err := s.service.GetSettings(r.Context(), session)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	case http.MethodPut:
		var body struct {
			CoopName      string   `json:"coopName"`
			News          string   `json:"news"`
			HomePageID    *string  `json:"homePageId"`
			PublicPageIDs []string `json:"publicPageIds"`
			MemberPageIDs []string `json:"memberPageIds"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		payload, err := s.service.UpdateSettings(r.Context(), session, store.Settings{
			CoopName:      body.CoopName,
			News:          body.News,
			HomePageID:    body.HomePageID,
			PublicPageIDs: body.PublicPageIDs,
			MemberPageIDs: body.MemberPageIDs,
		})
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, payload)

	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	}
}
