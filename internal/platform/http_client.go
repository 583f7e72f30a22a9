package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shaiso/Relay/internal/domain"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 200
)

// HTTPClient — JSON-over-HTTP клиент API провайдера.
//
// Маршруты относительно базового URL (Credentials.Endpoint или BaseURL):
//   - POST   /posts              — публикация, ответ {id, url}
//   - DELETE /posts/{id}         — удаление
//   - GET    /posts/{id}/metrics — метрики
//   - GET    /me                 — проверка токена
//
// Ошибка сети оборачивается в ErrTransport, HTTP >= 400 — в ErrProviderRejected.
type HTTPClient struct {
	// BaseURL — адрес API по умолчанию.
	BaseURL string

	HTTP *http.Client
}

// NewHTTPClient создаёт клиент с таймаутом по умолчанию.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// publishRequest — тело запроса публикации.
type publishRequest struct {
	AccountID string `json:"account_id,omitempty"`
	Content
}

// Publish отправляет пост провайдеру.
func (c *HTTPClient) Publish(ctx context.Context, creds domain.Credentials, content Content) (Published, error) {
	var out Published
	body := publishRequest{AccountID: creds.AccountID, Content: content}
	if err := c.do(ctx, creds, http.MethodPost, "/posts", body, &out); err != nil {
		return Published{}, err
	}
	return out, nil
}

// Delete удаляет опубликованный пост.
func (c *HTTPClient) Delete(ctx context.Context, creds domain.Credentials, externalID string) error {
	return c.do(ctx, creds, http.MethodDelete, "/posts/"+externalID, nil, nil)
}

// Metrics возвращает метрики поста.
func (c *HTTPClient) Metrics(ctx context.Context, creds domain.Credentials, externalID string) (domain.Metrics, error) {
	var m domain.Metrics
	if err := c.do(ctx, creds, http.MethodGet, "/posts/"+externalID+"/metrics", nil, &m); err != nil {
		return domain.Metrics{}, err
	}
	return m, nil
}

// Verify проверяет токен.
func (c *HTTPClient) Verify(ctx context.Context, creds domain.Credentials) error {
	return c.do(ctx, creds, http.MethodGet, "/me", nil, nil)
}

// do выполняет запрос и декодирует JSON ответ в out.
func (c *HTTPClient) do(ctx context.Context, creds domain.Credentials, method, path string, in, out any) error {
	base := creds.Endpoint
	if base == "" {
		base = c.BaseURL
	}
	if base == "" {
		return fmt.Errorf("%w: no endpoint configured", ErrProviderRejected)
	}
	url := strings.TrimRight(base, "/") + path

	var bodyReader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrProviderRejected, resp.StatusCode, truncate(strings.TrimSpace(string(respBody)), maxErrorBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// truncate обрезает строку до maxLen байт, не разрывая символ UTF-8.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
