package domain

// Credentials — учётные данные арендатора для одной платформы.
type Credentials struct {
	AccessToken string `json:"access_token"`
	AccountID   string `json:"account_id,omitempty"`

	// Endpoint — базовый URL API провайдера (переопределяет значение по умолчанию).
	Endpoint string `json:"endpoint,omitempty"`
}

// PublishingConfig — настройки публикации арендатора.
// Pipeline только читает конфигурацию.
type PublishingConfig struct {
	TenantID        string                   `json:"tenant_id"`
	Credentials     map[Platform]Credentials `json:"credentials"`
	ShortenURLs     bool                     `json:"shorten_urls"`
	AutoHashtags    bool                     `json:"auto_hashtags"`
	DefaultTimezone string                   `json:"default_timezone"`
}

// CredentialsFor возвращает учётные данные для платформы.
func (c *PublishingConfig) CredentialsFor(p Platform) (Credentials, bool) {
	if c == nil || c.Credentials == nil {
		return Credentials{}, false
	}
	creds, ok := c.Credentials[p]
	if !ok || creds.AccessToken == "" {
		return Credentials{}, false
	}
	return creds, true
}
