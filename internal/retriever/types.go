package retriever

// Document is one ranked passage returned by the embedding-index search.
// Page and Source are nil when the index carries no such metadata.
type Document struct {
	Text   string
	Page   *int
	Source *string
	Score  float64
}

// searchRequest is the body posted to the search service
type searchRequest struct {
	Index string `json:"index"`
	Query string `json:"query"`
	K     int    `json:"k"`
}
