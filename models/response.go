package models

// Source identifies a document that contributed to an answer, together with
// its similarity score. Score is expected in [0,1] and is rendered by clients
// as a percentage.
type Source struct {
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}

// IndexResponse is the body returned by POST /api/index-documents.
type IndexResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AskResponse is the body returned by POST /api/ask. On success, Answer and
// Sources are set; on failure, Message carries the error description.
type AskResponse struct {
	Success bool     `json:"success"`
	Answer  string   `json:"answer,omitempty"`
	Sources []Source `json:"sources,omitempty"`
	Message string   `json:"message,omitempty"`
}
