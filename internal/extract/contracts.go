// Package extract turns a stored document image into structured text fields.
package extract

import "context"

// Result is the extraction output: one free-text field plus three categorized
// lists. Lists may be empty but are never nil.
type Result struct {
	FullText     string   `json:"fullText"`
	Materials    []string `json:"materials"`
	Measurements []string `json:"measurements"`
	Instructions []string `json:"instructions"`
}

// Normalize enforces the never-nil list invariant.
func (r *Result) Normalize() {
	if r.Materials == nil {
		r.Materials = []string{}
	}
	if r.Measurements == nil {
		r.Measurements = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
}

// Extractor is the document-understanding engine. A single call per capture
// event; a failure halts the pipeline with nothing persisted, and there is no
// retry policy.
type Extractor interface {
	Extract(ctx context.Context, imageURL string) (*Result, error)
}
