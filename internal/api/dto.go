package api

import (
	"sort"
	"time"

	"github.com/shaiso/Relay/internal/domain"
)

// Scan DTOs

// TriggerScanRequest — запрос на ручной запуск сканирования.
type TriggerScanRequest struct {
	BatchSize int `json:"batch_size"`
}

// TriggerScanResponse — ответ о постановке задачи сканирования.
type TriggerScanResponse struct {
	JobID  string `json:"job_id"`
	Queued bool   `json:"queued"`
}

// LockResponse — состояние блокировки сканера.
type LockResponse struct {
	Key          string `json:"key"`
	Held         bool   `json:"held"`
	Holder       string `json:"holder,omitempty"`
	TTLRemaining string `json:"ttl_remaining,omitempty"`
}

// ScanStatusResponse — состояние сканера.
type ScanStatusResponse struct {
	Lock     LockResponse       `json:"lock"`
	LastScan *domain.ScanResult `json:"last_scan"`
}

// LockFromDomain конвертирует domain.LockState в LockResponse.
func LockFromDomain(s domain.LockState) LockResponse {
	resp := LockResponse{Key: s.Key, Held: s.Held, Holder: s.Holder}
	if s.Held && s.TTLRemaining > 0 {
		resp.TTLRemaining = s.TTLRemaining.String()
	}
	return resp
}

// History DTOs

// HistoryEntryResponse — запись истории публикации.
type HistoryEntryResponse struct {
	Platform       domain.Platform `json:"platform"`
	Success        bool            `json:"success"`
	ExternalPostID string          `json:"external_post_id,omitempty"`
	ExternalURL    string          `json:"external_url,omitempty"`
	Error          string          `json:"error,omitempty"`
	AttemptedAt    time.Time       `json:"attempted_at"`
	Metrics        *domain.Metrics `json:"metrics,omitempty"`
}

// PostHistoryResponse — история публикаций поста.
type PostHistoryResponse struct {
	PostID   int64                  `json:"post_id"`
	TenantID string                 `json:"tenant_id"`
	Status   domain.PostStatus      `json:"status"`
	Entries  []HistoryEntryResponse `json:"entries"`

	// PendingPlatforms — платформы, последняя попытка на которых неуспешна.
	PendingPlatforms []domain.Platform `json:"pending_platforms"`
}

// HistoryEntryFromDomain конвертирует domain.HistoryEntry в HistoryEntryResponse.
func HistoryEntryFromDomain(e domain.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		Platform:       e.Platform,
		Success:        e.Success,
		ExternalPostID: e.ExternalPostID,
		ExternalURL:    e.ExternalURL,
		Error:          e.Error,
		AttemptedAt:    e.AttemptedAt,
		Metrics:        e.Metrics,
	}
}

// PendingPlatforms возвращает платформы, на которых последняя попытка неуспешна.
func PendingPlatforms(entries []domain.HistoryEntry) []domain.Platform {
	latest := make(map[domain.Platform]domain.HistoryEntry)
	for _, e := range entries {
		cur, ok := latest[e.Platform]
		if !ok || e.AttemptedAt.After(cur.AttemptedAt) {
			latest[e.Platform] = e
		}
	}

	pending := make([]domain.Platform, 0)
	for p, e := range latest {
		if !e.Success {
			pending = append(pending, p)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })
	return pending
}

// Health DTOs

// HealthResponse — состояние зависимостей.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
