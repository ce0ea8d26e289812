package models

// SetStatistics summarises a user's progress in one content set
type SetStatistics struct {
	ContentSet string `json:"content_set"`
	Seen       int    `json:"seen"`
	Unseen     int    `json:"unseen"`
	Total      int    `json:"total"`
}

// Started reports whether at least one item has been marked correct.
func (s SetStatistics) Started() bool {
	return s.Seen > 0
}

// Finished reports whether nothing is left to draw.
func (s SetStatistics) Finished() bool {
	return s.Unseen == 0
}
