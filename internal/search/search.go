package search

// Result is a single search hit over the generation history.
type Result struct {
	ID       string `json:"id"`
	StoryID  string `json:"storyId"`
	Synopsis string `json:"synopsis"`
	Snippet  string `json:"snippet"`
	Status   string `json:"status"`
}

// Query describes a search request over generations.
type Query struct {
	Text          string
	FilterStoryID string
	FilterStatus  string
	Limit         int
	Offset        int
}

// Response is the envelope returned to callers.
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

// GenerationRecord is the data indexed per generation.
type GenerationRecord struct {
	ID       string `json:"id"`
	StoryID  string `json:"storyId"`
	Synopsis string `json:"synopsis"`
	Text     string `json:"text"`
	Status   string `json:"status"`
}
