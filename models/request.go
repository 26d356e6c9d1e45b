package models

// AskRequest is the body of the POST /api/ask endpoint.
type AskRequest struct {
	Question string `json:"question"`
}
