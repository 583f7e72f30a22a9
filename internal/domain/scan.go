package domain

import "time"

// ScanResult — результат одного цикла сканирования запланированных постов.
// Не сохраняется в БД.
type ScanResult struct {
	PostsFound    int     `json:"posts_found"`
	PostsQueued   int     `json:"posts_queued"`
	PostsFailed   int     `json:"posts_failed"`
	QueuedPostIDs []int64 `json:"queued_post_ids"`

	// Skipped — цикл пропущен, потому что блокировку держит другой экземпляр.
	Skipped bool `json:"skipped,omitempty"`

	Manual     bool      `json:"manual"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// EmptyScanResult возвращает нулевой результат {0,0,0,[]}.
func EmptyScanResult() ScanResult {
	return ScanResult{QueuedPostIDs: []int64{}}
}

// LockState — состояние распределённой блокировки.
type LockState struct {
	Key          string        `json:"key"`
	Held         bool          `json:"held"`
	Holder       string        `json:"holder,omitempty"`
	TTLRemaining time.Duration `json:"ttl_remaining"`
}
