package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search executes a UNION ALL query across pages, threads, and posts
// using plainto_tsquery and ts_rank, with ts_headline for snippets.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	tsQuery := "plainto_tsquery('english', $1)"
	args := []any{q.Text}
	argN := 2

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultPage {
		pageWhere := "pg.fts @@ " + tsQuery
		if !q.Authenticated {
			pageWhere += " AND pg.public = TRUE"
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'page'::text AS type, pg.id, pg.title,
				ts_headline('english', coalesce(pg.content, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				pg.url_title AS slug, ''::text AS thread_id, ''::text AS forum_id, pg.public,
				ts_rank(pg.fts, %s) AS rank
			FROM pages pg
			WHERE %s`, tsQuery, tsQuery, pageWhere))
	}

	if q.Authenticated && (q.FilterType == "" || q.FilterType == ResultThread) {
		threadWhere := "t.fts @@ " + tsQuery
		if q.FilterForumID != "" {
			threadWhere += fmt.Sprintf(" AND t.forum_id = $%d", argN)
			args = append(args, q.FilterForumID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'thread'::text AS type, t.id, t.subject AS title,
				''::text AS snippet,
				t.url_subject AS slug, t.id AS thread_id, t.forum_id, FALSE AS public,
				ts_rank(t.fts, %s) AS rank
			FROM threads t
			WHERE %s`, tsQuery, threadWhere))
	}

	if q.Authenticated && (q.FilterType == "" || q.FilterType == ResultPost) {
		postWhere := "po.fts @@ " + tsQuery
		if q.FilterForumID != "" {
			postWhere += fmt.Sprintf(" AND t.forum_id = $%d", argN)
			args = append(args, q.FilterForumID)
			argN++
		}
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'post'::text AS type, po.id, po.subject AS title,
				ts_headline('english', coalesce(po.body, ''), %s, 'MaxFragments=1,MaxWords=30') AS snippet,
				''::text AS slug, po.thread_id, t.forum_id, FALSE AS public,
				ts_rank(po.fts, %s) AS rank
			FROM posts po
			JOIN threads t ON t.id = po.thread_id
			WHERE %s`, tsQuery, tsQuery, postWhere))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, slug, thread_id, forum_id, public
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.Slug, &r.ThreadID, &r.ForumID, &r.Public); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]PageRecord, []ThreadRecord, []PostRecord, error) {
	pageRows, err := p.db.QueryContext(ctx, `
		SELECT id, title, url_title, content, public
		FROM pages
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load pages: %w", err)
	}
	defer pageRows.Close()

	pages := make([]PageRecord, 0)
	for pageRows.Next() {
		var rec PageRecord
		if err := pageRows.Scan(&rec.ID, &rec.Title, &rec.Slug, &rec.Content, &rec.Public); err != nil {
			return nil, nil, nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, rec)
	}
	if err := pageRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate pages: %w", err)
	}

	threadRows, err := p.db.QueryContext(ctx, `
		SELECT id, subject, url_subject, forum_id
		FROM threads
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load threads: %w", err)
	}
	defer threadRows.Close()

	threads := make([]ThreadRecord, 0)
	for threadRows.Next() {
		var rec ThreadRecord
		if err := threadRows.Scan(&rec.ID, &rec.Subject, &rec.Slug, &rec.ForumID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan thread: %w", err)
		}
		threads = append(threads, rec)
	}
	if err := threadRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate threads: %w", err)
	}

	postRows, err := p.db.QueryContext(ctx, `
		SELECT po.id, po.subject, po.body, po.thread_id, t.forum_id
		FROM posts po
		JOIN threads t ON t.id = po.thread_id
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load posts: %w", err)
	}
	defer postRows.Close()

	posts := make([]PostRecord, 0)
	for postRows.Next() {
		var rec PostRecord
		if err := postRows.Scan(&rec.ID, &rec.Subject, &rec.Body, &rec.ThreadID, &rec.ForumID); err != nil {
			return nil, nil, nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, rec)
	}
	if err := postRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate posts: %w", err)
	}

	return pages, threads, posts, nil
}
