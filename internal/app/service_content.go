package app

import (
	"context"
	"io"
	"strings"

	"commonroof/api/internal/policy"
	"commonroof/api/internal/search"
	"commonroof/api/internal/slug"
	"commonroof/api/internal/store"
	"commonroof/api/internal/util"
)

type PageInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Public   bool   `json:"public"`
	Editable bool   `json:"editable"`
	Trusted  bool   `json:"trusted"`
}

type FileMetadataInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

func (s *Service) ListPages(ctx context.Context, session Session) (map[string]any, error) {
	pages, err := s.store.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	actor := session.Actor()
	items := make([]map[string]any, 0, len(pages))
	for _, p := range pages {
		if !policy.CanView(actor, policy.Restricted{Public: p.Public}) {
			continue
		}
		items = append(items, pageSummaryPayload(p))
	}
	return map[string]any{"pages": items}, nil
}

func (s *Service) GetPageBySlug(ctx context.Context, session Session, pageSlug string) (map[string]any, error) {
	page, err := s.store.GetPageBySlug(ctx, pageSlug)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(session.Actor(), policy.Restricted{Public: page.Public}) {
		return nil, forbidden()
	}
	payload := pagePayload(page)
	payload["canEdit"] = policy.CanEditPage(session.Actor(), pageTarget(page))
	return payload, nil
}

func (s *Service) CreatePage(ctx context.Context, session Session, input PageInput) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	title := strings.TrimSpace(input.Title)
	urlTitle := slug.Make(title)
	if title == "" || urlTitle == "" {
		return nil, validationError("title must contain letters or digits", map[string]any{"title": title})
	}

	page := store.Page{
		ID:       util.NewID("page"),
		Title:    title,
		URLTitle: urlTitle,
		Content:  input.Content,
		Public:   input.Public,
		Editable: input.Editable,
	}
	// Trusted pages render raw HTML, so only superusers may flag them.
	if session.Superuser {
		page.Trusted = input.Trusted
	}
	page.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertPage(ctx, page); err != nil {
		return nil, err
	}
	if err := s.pages.EnsurePageRepo(page.ID, page.Content, session.UserName); err != nil {
		return nil, err
	}
	s.indexPage(page)
	return pagePayload(page), nil
}

func (s *Service) UpdatePage(ctx context.Context, session Session, pageID string, input PageInput) (map[string]any, error) {
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditPage(session.Actor(), pageTarget(page)) {
		return nil, forbidden()
	}

	title := strings.TrimSpace(input.Title)
	urlTitle := slug.Make(title)
	if title == "" || urlTitle == "" {
		return nil, validationError("title must contain letters or digits", map[string]any{"title": title})
	}

	contentChanged := page.Content != input.Content

	page.Title = title
	page.URLTitle = urlTitle
	page.Content = input.Content
	if session.Superuser {
		page.Public = input.Public
		page.Editable = input.Editable
		page.Trusted = input.Trusted
	}
	page.ModifierID = nilIfEmpty(session.UserID)
	if err := s.store.UpdatePage(ctx, page); err != nil {
		return nil, err
	}

	if contentChanged {
		if _, err := s.pages.CommitContent(page.ID, page.Content, session.UserName, "Edit "+page.Title); err != nil {
			return nil, err
		}
	}
	s.indexPage(page)
	return pagePayload(page), nil
}

// PageHistory lists the commits for a page, newest first.
func (s *Service) PageHistory(ctx context.Context, session Session, pageID string, limit int) (map[string]any, error) {
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(session.Actor(), policy.Restricted{Public: page.Public}) {
		return nil, forbidden()
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	revisions, err := s.pages.History(page.ID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(revisions))
	for _, rev := range revisions {
		items = append(items, map[string]any{
			"hash":    rev.Hash,
			"author":  rev.Author,
			"message": rev.Message,
			"when":    formatTime(rev.CreatedAt),
		})
	}
	return map[string]any{"pageId": page.ID, "revisions": items}, nil
}

// PageRevision returns the content of the page at a specific commit.
func (s *Service) PageRevision(ctx context.Context, session Session, pageID, hash string) (map[string]any, error) {
	page, err := s.store.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(session.Actor(), policy.Restricted{Public: page.Public}) {
		return nil, forbidden()
	}
	content, err := s.pages.GetContentByHash(page.ID, hash)
	if err != nil {
		return nil, notFound("Revision not found")
	}
	return map[string]any{"pageId": page.ID, "hash": hash, "content": content}, nil
}

func (s *Service) ListFiles(ctx context.Context, session Session) (map[string]any, error) {
	files, err := s.store.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	actor := session.Actor()
	items := make([]map[string]any, 0, len(files))
	for _, f := range files {
		if !policy.CanView(actor, policy.Restricted{Public: f.Public}) {
			continue
		}
		items = append(items, filePayload(f))
	}
	return map[string]any{"files": items}, nil
}

func (s *Service) UploadFile(ctx context.Context, session Session, name, description, contentType string, body io.Reader, size int64, public bool) (map[string]any, error) {
	if !session.Actor().Authenticated {
		return nil, forbidden()
	}
	if s.blobs == nil {
		return nil, domainError(503, "UPLOADS_UNAVAILABLE", "File storage is not configured", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("a file name is required", nil)
	}
	if size <= 0 || size > s.cfg.MaxUploadBytes {
		return nil, validationError("file exceeds the upload size limit", map[string]any{"maxBytes": s.cfg.MaxUploadBytes})
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file := store.File{
		ID:          util.NewID("file"),
		Name:        name,
		Description: description,
		ContentType: contentType,
		Size:        size,
		Public:      public,
	}
	file.ObjectPath = file.ID + "/" + name
	file.CreatorID = nilIfEmpty(session.UserID)

	if err := s.blobs.Put(ctx, file.ObjectPath, body, size, contentType); err != nil {
		return nil, err
	}
	if err := s.store.InsertFile(ctx, file); err != nil {
		_ = s.blobs.Remove(ctx, file.ObjectPath)
		return nil, err
	}
	return filePayload(file), nil
}

// OpenFile returns the stored file's metadata and a reader over its
// bytes. The caller must close the reader.
func (s *Service) OpenFile(ctx context.Context, session Session, fileID string) (store.File, io.ReadCloser, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return store.File{}, nil, err
	}
	if !policy.CanView(session.Actor(), policy.Restricted{Public: file.Public}) {
		return store.File{}, nil, forbidden()
	}
	if s.blobs == nil {
		return store.File{}, nil, domainError(503, "UPLOADS_UNAVAILABLE", "File storage is not configured", nil)
	}
	body, err := s.blobs.Get(ctx, file.ObjectPath)
	if err != nil {
		return store.File{}, nil, err
	}
	return file, body, nil
}

func (s *Service) UpdateFileMetadata(ctx context.Context, session Session, fileID string, input FileMetadataInput) (map[string]any, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditFile(session.Actor(), deref(file.CreatorID)) {
		return nil, forbidden()
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("a file name is required", nil)
	}
	file.Name = name
	file.Description = input.Description
	file.Public = input.Public
	file.ModifierID = nilIfEmpty(session.UserID)
	if err := s.store.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return filePayload(file), nil
}

func (s *Service) DeleteFile(ctx context.Context, session Session, fileID string) error {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if !policy.CanEditFile(session.Actor(), deref(file.CreatorID)) {
		return forbidden()
	}
	if err := s.store.DeleteFile(ctx, fileID); err != nil {
		return err
	}
	if s.blobs != nil {
		_ = s.blobs.Remove(ctx, file.ObjectPath)
	}
	return nil
}

func (s *Service) GetSettings(ctx context.Context, session Session) (map[string]any, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{
		"coopName": settings.CoopName,
		"news":     settings.News,
	}
	if settings.HomePageID != nil {
		payload["homePageId"] = *settings.HomePageID
	}
	// The page lists drive navigation menus and are only relevant to
	// signed-in members.
	if session.Actor().Authenticated {
		payload["publicPageIds"] = settings.PublicPageIDs
		payload["memberPageIds"] = settings.MemberPageIDs
	}
	return payload, nil
}

func (s *Service) UpdateSettings(ctx context.Context, session Session, settings store.Settings) (map[string]any, error) {
	if !session.Superuser {
		return nil, forbidden()
	}
	if strings.TrimSpace(settings.CoopName) == "" {
		return nil, validationError("the co-op name is required", nil)
	}
	settings.ModifierID = nilIfEmpty(session.UserID)
	if err := s.store.UpdateSettings(ctx, settings); err != nil {
		return nil, err
	}
	return s.GetSettings(ctx, session)
}

func (s *Service) indexPage(page store.Page) {
	if s.search == nil {
		return
	}
	s.search.IndexPage(search.PageRecord{
		ID:      page.ID,
		Title:   page.Title,
		Slug:    page.URLTitle,
		Content: page.Content,
		Public:  page.Public,
	})
}

func pageTarget(p store.Page) policy.PageTarget {
	return policy.PageTarget{CreatorID: deref(p.CreatorID), Editable: p.Editable}
}

func pageSummaryPayload(p store.Page) map[string]any {
	return map[string]any{
		"id":        p.ID,
		"title":     p.Title,
		"slug":      p.URLTitle,
		"public":    p.Public,
		"editable":  p.Editable,
		"updatedAt": formatTime(p.UpdatedAt),
	}
}

func pagePayload(p store.Page) map[string]any {
	payload := pageSummaryPayload(p)
	payload["content"] = p.Content
	payload["trusted"] = p.Trusted
	return payload
}

func filePayload(f store.File) map[string]any {
	return map[string]any{
		"id":          f.ID,
		"name":        f.Name,
		"description": f.Description,
		"contentType": f.ContentType,
		"size":        f.Size,
		"public":      f.Public,
		"createdAt":   formatTime(f.CreatedAt),
	}
}
