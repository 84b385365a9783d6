package localstore

import "time"

// AudioEntry maps (voiceID, storyID) to a downloaded narration file. An
// entry is only trustworthy while the referenced file exists on disk; the
// cache manager verifies that before returning LocalPath.
type AudioEntry struct {
	VoiceID   string    `gorm:"primaryKey;column:voice_id"`
	StoryID   string    `gorm:"primaryKey;column:story_id"`
	LocalPath string    `gorm:"column:local_path"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// QueuedOp is a deferred mutating request awaiting replay. FIFO replay order
// is the insertion order of the auto-increment ID.
type QueuedOp struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Method     string    `gorm:"column:method"`
	Endpoint   string    `gorm:"column:endpoint"`
	Body       []byte    `gorm:"column:body"`
	EnqueuedAt time.Time `gorm:"column:enqueued_at"`
}

// CatalogStory is a cached story descriptor row. The whole table is
// replaced on each successful catalog refresh.
type CatalogStory struct {
	ID               string `gorm:"primaryKey"`
	Position         int    `gorm:"column:position"` // preserves server ordering
	Title            string
	Author           string
	DurationSeconds  int
	CoverURLTemplate string
}

// Setting is a single key/value row for small persisted state such as the
// current voice id and the catalog fetch timestamp.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// Well-known setting keys.
const (
	KeyCurrentVoiceID   = "current_voice_id"
	KeyCatalogFetchedAt = "catalog_fetched_at"
)
