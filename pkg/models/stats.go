package models

// CardCounts aggregates cards by lifecycle state
type CardCounts struct {
	Total    int `json:"totalCards"`
	Due      int `json:"dueCards"`
	New      int `json:"newCards"`
	Learning int `json:"learningCards"`
	Review   int `json:"reviewCards"`
	Mature   int `json:"matureCards"`
}

// BatchStats is the dashboard summary for one vocabulary database
type BatchStats struct {
	DatabaseID       int64  `json:"databaseId"`
	TotalBatches     int    `json:"totalBatches"`
	CompletedBatches int    `json:"completedBatches"`
	CurrentBatch     *Batch `json:"currentBatch"`
	ReadyForNext     bool   `json:"readyForNext"`
	CardCounts
}

// DeckCards is the Anki-style view over every card of a database
type DeckCards struct {
	DueCards []StudyCard `json:"dueCards"`
	AllCards []StudyCard `json:"allCards"`
	CardCounts
}
