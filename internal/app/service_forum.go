package app

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"commonroof/api/internal/policy"
	"commonroof/api/internal/search"
	"commonroof/api/internal/slug"
	"commonroof/api/internal/store"
	"commonroof/api/internal/util"
)

// ListForums partitions forums into general and committee-owned, each
// ordered by total post count descending. Counts are recomputed per
// request.
func (s *Service) ListForums(ctx context.Context, session Session) (map[string]any, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}

	forums, err := s.store.ListForums(ctx)
	if err != nil {
		return nil, err
	}

	general := make([]map[string]any, 0)
	committee := make([]map[string]any, 0)
	sort.SliceStable(forums, func(i, j int) bool {
		return forums[i].PostCount > forums[j].PostCount
	})
	for _, f := range forums {
		payload := forumPayload(f)
		if f.CommitteeID != nil {
			committee = append(committee, payload)
		} else {
			general = append(general, payload)
		}
	}

	return map[string]any{"general": general, "committee": committee}, nil
}

func (s *Service) CreateForum(ctx context.Context, session Session, name, description string) (map[string]any, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}

	name = strings.TrimSpace(name)
	urlName := slug.Make(name)
	if name == "" || urlName == "" {
		return nil, validationError("name must contain letters or digits", map[string]any{"name": name})
	}

	forum := store.Forum{
		ID:          util.NewID("forum"),
		Name:        name,
		URLName:     urlName,
		Description: strings.TrimSpace(description),
	}
	forum.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertForum(ctx, forum); err != nil {
		return nil, err
	}
	return forumPayload(forum), nil
}

func (s *Service) GetForumBySlug(ctx context.Context, session Session, forumSlug string) (map[string]any, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}

	forum, err := s.store.GetForumBySlug(ctx, forumSlug)
	if err != nil {
		return nil, err
	}
	threads, err := s.store.ListForumThreads(ctx, forum.ID)
	if err != nil {
		return nil, err
	}

	threadPayloads := make([]map[string]any, 0, len(threads))
	for _, t := range threads {
		threadPayloads = append(threadPayloads, threadPayload(t))
	}

	payload := forumPayload(forum)
	payload["threads"] = threadPayloads
	return payload, nil
}

func (s *Service) CreateThread(ctx context.Context, session Session, forumSlug, subject, body string) (map[string]any, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}

	forum, err := s.store.GetForumBySlug(ctx, forumSlug)
	if err != nil {
		return nil, err
	}

	subject = strings.TrimSpace(subject)
	urlSubject := slug.Make(subject)
	if subject == "" || urlSubject == "" {
		return nil, validationError("subject must contain letters or digits", map[string]any{"subject": subject})
	}
	if strings.TrimSpace(body) == "" {
		return nil, validationError("post body is required", map[string]any{"subject": subject})
	}

	thread := store.Thread{
		ID:         util.NewID("thread"),
		ForumID:    forum.ID,
		Subject:    subject,
		URLSubject: urlSubject,
	}
	thread.CreatorID = nilIfEmpty(session.UserID)

	// The opening post is written in the same transaction; a thread
	// never exists without one, and the opening post has no reply
	// target.
	opening := store.Post{
		ID:       util.NewID("post"),
		ThreadID: thread.ID,
		Subject:  subject,
		Body:     body,
	}
	opening.CreatorID = nilIfEmpty(session.UserID)

	if err := s.store.InsertThread(ctx, thread, opening); err != nil {
		return nil, err
	}

	s.indexThread(forum.ID, thread)
	s.indexPost(forum.ID, opening)

	return threadPayload(thread), nil
}

// GetThread resolves a thread by slug or id inside a forum and bumps
// its view counter. Every read counts; repeat views by the same
// member still increment.
func (s *Service) GetThread(ctx context.Context, session Session, forumSlug, threadRef string) (map[string]any, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}

	forum, err := s.store.GetForumBySlug(ctx, forumSlug)
	if err != nil {
		return nil, err
	}
	thread, err := s.resolveThread(ctx, threadRef)
	if err != nil {
		return nil, err
	}
	if thread.ForumID != forum.ID {
		return nil, notFound("Thread not found in this forum")
	}

	views, err := s.store.BumpThreadViews(ctx, thread.ID)
	if err != nil {
		return nil, err
	}
	thread.Views = views

	posts, err := s.store.ListThreadPosts(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	postPayloads := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		postPayloads = append(postPayloads, postPayload(p))
	}

	payload := threadPayload(thread)
	payload["forumSlug"] = forum.URLName
	payload["posts"] = postPayloads
	return payload, nil
}

func (s *Service) CreatePost(ctx context.Context, session Session, forumSlug, threadRef, subject, body string, replyToID *string) (map[string]any, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}

	forum, err := s.store.GetForumBySlug(ctx, forumSlug)
	if err != nil {
		return nil, err
	}
	thread, err := s.resolveThread(ctx, threadRef)
	if err != nil {
		return nil, err
	}
	if thread.ForumID != forum.ID {
		return nil, notFound("Thread not found in this forum")
	}

	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "Re: " + thread.Subject
	}
	if strings.TrimSpace(body) == "" {
		return nil, validationError("post body is required", map[string]any{"subject": subject})
	}

	if err := s.checkReplyTarget(ctx, thread.ID, replyToID, ""); err != nil {
		return nil, err
	}

	post := store.Post{
		ID:        util.NewID("post"),
		ThreadID:  thread.ID,
		Subject:   subject,
		Body:      body,
		ReplyToID: replyToID,
	}
	post.CreatorID = nilIfEmpty(session.UserID)
	if err := s.store.InsertPost(ctx, post); err != nil {
		return nil, err
	}

	s.indexPost(forum.ID, post)

	return postPayload(post), nil
}

func (s *Service) UpdatePost(ctx context.Context, session Session, postID, subject, body string, replyToID *string) (map[string]any, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditPost(session.Actor(), deref(post.CreatorID)) {
		return nil, forbidden()
	}

	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, validationError("subject is required", map[string]any{"subject": subject})
	}
	if strings.TrimSpace(body) == "" {
		return nil, validationError("post body is required", map[string]any{"subject": subject})
	}
	// A post can never become its own reply target.
	if err := s.checkReplyTarget(ctx, post.ThreadID, replyToID, post.ID); err != nil {
		return nil, err
	}

	post.Subject = subject
	post.Body = body
	post.ReplyToID = replyToID
	post.ModifierID = nilIfEmpty(session.UserID)
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}

	thread, err := s.store.GetThread(ctx, post.ThreadID)
	if err == nil {
		s.indexPost(thread.ForumID, post)
	}

	return postPayload(post), nil
}

// ReplyTargets lists the posts a new or edited post may reply to. The
// post being edited is excluded so it cannot target itself.
func (s *Service) ReplyTargets(ctx context.Context, session Session, threadRef, excludePostID string) (map[string]any, error) {
	if !policy.CanViewForum(session.Actor()) {
		return nil, forbidden()
	}

	thread, err := s.resolveThread(ctx, threadRef)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.ListThreadPosts(ctx, thread.ID)
	if err != nil {
		return nil, err
	}

	targets := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		if p.ID == excludePostID {
			continue
		}
		targets = append(targets, map[string]any{
			"id":      p.ID,
			"subject": p.Subject,
			"author":  p.AuthorName,
		})
	}
	return map[string]any{"threadId": thread.ID, "targets": targets}, nil
}

func (s *Service) resolveThread(ctx context.Context, threadRef string) (store.Thread, error) {
	thread, err := s.store.GetThreadBySlug(ctx, threadRef)
	if errors.Is(err, sql.ErrNoRows) {
		return s.store.GetThread(ctx, threadRef)
	}
	return thread, err
}

func (s *Service) checkReplyTarget(ctx context.Context, threadID string, replyToID *string, editedPostID string) error {
	if replyToID == nil || *replyToID == "" {
		return nil
	}
	if editedPostID != "" && *replyToID == editedPostID {
		return validationError("a post cannot reply to itself", nil)
	}
	target, err := s.store.GetPost(ctx, *replyToID)
	if errors.Is(err, sql.ErrNoRows) {
		return validationError("reply target does not exist", map[string]any{"replyTo": *replyToID})
	}
	if err != nil {
		return err
	}
	if target.ThreadID != threadID {
		return validationError("reply target belongs to another thread", map[string]any{"replyTo": *replyToID})
	}
	return nil
}

func (s *Service) indexThread(forumID string, t store.Thread) {
	if s.search == nil {
		return
	}
	s.search.IndexThread(search.ThreadRecord{
		ID:      t.ID,
		Subject: t.Subject,
		Slug:    t.URLSubject,
		ForumID: forumID,
	})
}

func (s *Service) indexPost(forumID string, p store.Post) {
	if s.search == nil {
		return
	}
	s.search.IndexPost(search.PostRecord{
		ID:       p.ID,
		Subject:  p.Subject,
		Body:     p.Body,
		ThreadID: p.ThreadID,
		ForumID:  forumID,
	})
}

func forumPayload(f store.Forum) map[string]any {
	payload := map[string]any{
		"id":          f.ID,
		"name":        f.Name,
		"slug":        f.URLName,
		"description": f.Description,
		"threadCount": f.ThreadCount,
		"postCount":   f.PostCount,
		"lastPost":    summaryPayload(f.LastPost),
	}
	if f.CommitteeID != nil {
		payload["committeeId"] = *f.CommitteeID
		payload["committeeName"] = f.CommitteeName
	}
	return payload
}

func threadPayload(t store.Thread) map[string]any {
	return map[string]any{
		"id":        t.ID,
		"forumId":   t.ForumID,
		"subject":   t.Subject,
		"slug":      t.URLSubject,
		"views":     t.Views,
		"postCount": t.PostCount,
		"lastPost":  summaryPayload(t.LastPost),
		"createdAt": formatTime(t.CreatedAt),
	}
}

func postPayload(p store.Post) map[string]any {
	payload := map[string]any{
		"id":        p.ID,
		"threadId":  p.ThreadID,
		"subject":   p.Subject,
		"body":      p.Body,
		"author":    p.AuthorName,
		"createdAt": formatTime(p.CreatedAt),
		"updatedAt": formatTime(p.UpdatedAt),
	}
	if p.ReplyToID != nil {
		payload["replyTo"] = *p.ReplyToID
	}
	return payload
}

func summaryPayload(ps *store.PostSummary) any {
	if ps == nil {
		return nil
	}
	return map[string]any{
		"id":        ps.ID,
		"threadId":  ps.ThreadID,
		"subject":   ps.Subject,
		"author":    ps.AuthorName,
		"createdAt": formatTime(ps.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
