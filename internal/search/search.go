package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultPage   ResultType = "page"
	ResultThread ResultType = "thread"
	ResultPost   ResultType = "post"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	Slug     string     `json:"slug,omitempty"`
	ThreadID string     `json:"threadId,omitempty"`
	ForumID  string     `json:"forumId,omitempty"`
	Public   bool       `json:"public,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text          string
	FilterType    ResultType // empty = all types
	FilterForumID string
	Limit         int
	Offset        int
	Authenticated bool
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// PageRecord is the data we index for a page.
type PageRecord struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Public  bool   `json:"public"`
}

// ThreadRecord is the data we index for a forum thread.
type ThreadRecord struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Slug    string `json:"slug"`
	ForumID string `json:"forumId"`
}

// PostRecord is the data we index for a post.
type PostRecord struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ThreadID string `json:"threadId"`
	ForumID  string `json:"forumId"`
}
