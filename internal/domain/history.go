package domain

import "time"

// HistoryEntry — запись истории публикации: одна строка на пару (пост, платформа) за попытку.
//
// Поля метрик заполняет отдельная задача синхронизации.
type HistoryEntry struct {
	ID             int64     `json:"id"`
	PostID         int64     `json:"post_id"`
	TenantID       string    `json:"tenant_id"`
	Platform       Platform  `json:"platform"`
	Success        bool      `json:"success"`
	ExternalPostID string    `json:"external_post_id,omitempty"`
	ExternalURL    string    `json:"external_url,omitempty"`
	Error          string    `json:"error,omitempty"`
	AttemptedAt    time.Time `json:"attempted_at"`

	Metrics         *Metrics   `json:"metrics,omitempty"`
	MetricsSyncedAt *time.Time `json:"metrics_synced_at,omitempty"`
}

// HistoryFromResults строит записи истории по результатам попытки.
func HistoryFromResults(post *Post, results []PlatformResult, at time.Time) []HistoryEntry {
	entries := make([]HistoryEntry, 0, len(results))
	for _, r := range results {
		entries = append(entries, HistoryEntry{
			PostID:         post.ID,
			TenantID:       post.TenantID,
			Platform:       r.Platform,
			Success:        r.Success,
			ExternalPostID: r.ExternalPostID,
			ExternalURL:    r.ExternalURL,
			Error:          r.Error,
			AttemptedAt:    at,
		})
	}
	return entries
}
