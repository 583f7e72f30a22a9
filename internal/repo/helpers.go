package repo

import "github.com/shaiso/Relay/internal/domain"

// nullString возвращает nil для пустой строки (NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

func statusStrings(statuses []domain.PostStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func toPlatforms(values []string) []domain.Platform {
	out := make([]domain.Platform, len(values))
	for i, v := range values {
		out[i] = domain.Platform(v)
	}
	return out
}
