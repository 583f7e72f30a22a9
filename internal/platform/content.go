package platform

import (
	"strings"

	"github.com/shaiso/Relay/internal/domain"
)

// PrepareContent собирает текст для отправки с учётом настроек арендатора.
func PrepareContent(post *domain.Post, cfg *domain.PublishingConfig) Content {
	text := post.Text
	if cfg != nil && cfg.AutoHashtags {
		text = appendHashtags(text, post.Hashtags)
	}

	return Content{
		Text:        text,
		MediaURLs:   post.MediaURLs,
		LinkURL:     post.LinkURL,
		ShortenURLs: cfg != nil && cfg.ShortenURLs,
	}
}

// appendHashtags добавляет к тексту хэштеги, которых в нём ещё нет.
func appendHashtags(text string, tags []string) string {
	var extra []string
	seen := make(map[string]bool)

	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		h := "#" + tag
		key := strings.ToLower(h)
		if seen[key] || containsWord(text, h) {
			continue
		}
		seen[key] = true
		extra = append(extra, h)
	}

	if len(extra) == 0 {
		return text
	}
	if text == "" {
		return strings.Join(extra, " ")
	}
	return text + "\n\n" + strings.Join(extra, " ")
}

func containsWord(text, word string) bool {
	for _, f := range strings.Fields(text) {
		if strings.EqualFold(strings.TrimRight(f, ".,!?;:"), word) {
			return true
		}
	}
	return false
}
