package models

// Item is a single text pair of a content set
type Item struct {
	Source string `json:"source"` // Text shown to the learner
	Target string `json:"target"` // Reference translation revealed after an attempt
}
