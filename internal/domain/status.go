package domain

import "fmt"

// PostStatus — статус публикации поста.
//
// Жизненный цикл:
//
//	DRAFT ─┐
//	       ├→ PUBLISHING → PUBLISHED
//	SCHEDULED ┘          ↘ PARTIALLY_PUBLISHED
//	                     ↘ FAILED
//	SCHEDULED → CANCELLED (или обратно в DRAFT внешним актором)
//
// В PUBLISHING пост переводит только Publish Worker.
type PostStatus string

const (
	// PostStatusDraft — черновик.
	PostStatusDraft PostStatus = "DRAFT"

	// PostStatusScheduled — запланирован на ScheduledFor.
	PostStatusScheduled PostStatus = "SCHEDULED"

	// PostStatusPublishing — worker выполняет публикацию.
	PostStatusPublishing PostStatus = "PUBLISHING"

	// PostStatusPublished — опубликован на всех платформах.
	PostStatusPublished PostStatus = "PUBLISHED"

	// PostStatusPartiallyPublished — опубликован только на части платформ.
	PostStatusPartiallyPublished PostStatus = "PARTIALLY_PUBLISHED"

	// PostStatusFailed — не опубликован ни на одной платформе.
	PostStatusFailed PostStatus = "FAILED"

	// PostStatusCancelled — отменён.
	PostStatusCancelled PostStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
// Пост в финальном статусе никогда не ставится в очередь автоматически.
func (s PostStatus) IsTerminal() bool {
	switch s {
	case PostStatusPublished, PostStatusPartiallyPublished, PostStatusFailed, PostStatusCancelled:
		return true
	default:
		return false
	}
}

// CanPublish возвращает true, если из этого статуса допустим переход в PUBLISHING.
func (s PostStatus) CanPublish() bool {
	return s == PostStatusDraft || s == PostStatusScheduled
}

// String возвращает строковое представление PostStatus.
func (s PostStatus) String() string {
	return string(s)
}

// ParsePostStatus парсит строку в PostStatus.
func ParsePostStatus(s string) (PostStatus, error) {
	switch st := PostStatus(s); st {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublishing, PostStatusPublished,
		PostStatusPartiallyPublished, PostStatusFailed, PostStatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown post status %q", s)
	}
}

// PublishableStatuses — статусы, из которых worker может начать публикацию.
var PublishableStatuses = []PostStatus{PostStatusDraft, PostStatusScheduled}
