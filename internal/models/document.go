// internal/models/document.go
package models

// ExternalDocument is a document held by the Outline store.
type ExternalDocument struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Text         string `json:"text,omitempty"`
	CollectionID string `json:"collectionId,omitempty"`
}

// Proposal is an upstream field update extracted from an edited document.
// Nil fields are left unchanged upstream.
type Proposal struct {
	ShortCode   string  `json:"shortCode"`
	Subtitle    *string `json:"subtitle,omitempty"`
	Description *string `json:"description,omitempty"`
	DocumentID  string  `json:"documentId,omitempty"`
	Title       string  `json:"title,omitempty"`
}
