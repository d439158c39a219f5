package models

// Location is a place handed to Apple Maps.
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// SearchResult is one web search hit with a preview of the linked page.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Content string `json:"content"`
}
