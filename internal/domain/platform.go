package domain

import (
	"fmt"
	"strings"
)

// Platform — социальная сеть, в которую публикуется пост.
type Platform string

const (
	PlatformTwitter   Platform = "TWITTER"
	PlatformLinkedIn  Platform = "LINKEDIN"
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformMastodon  Platform = "MASTODON"
	PlatformThreads   Platform = "THREADS"
)

// AllPlatforms — все поддерживаемые платформы.
var AllPlatforms = []Platform{
	PlatformTwitter,
	PlatformLinkedIn,
	PlatformFacebook,
	PlatformInstagram,
	PlatformMastodon,
	PlatformThreads,
}

// ParsePlatform парсит строку в Platform (регистр не важен).
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllPlatforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// PlatformResult — результат публикации на одной платформе.
//
// При Success=true заполнены ExternalPostID/ExternalURL, иначе — Error.
type PlatformResult struct {
	Platform       Platform `json:"platform"`
	Success        bool     `json:"success"`
	ExternalPostID string   `json:"external_post_id,omitempty"`
	ExternalURL    string   `json:"external_url,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Metrics — метрики опубликованного поста на платформе.
type Metrics struct {
	Impressions int64 `json:"impressions"`
	Likes       int64 `json:"likes"`
	Shares      int64 `json:"shares"`
	Comments    int64 `json:"comments"`
	Clicks      int64 `json:"clicks"`
}
