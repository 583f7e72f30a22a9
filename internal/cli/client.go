package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// TriggerScanResponse — результат ручного запуска сканирования.
type TriggerScanResponse struct {
	JobID  string `json:"job_id"`
	Queued bool   `json:"queued"`
}

// ScanResult — результат цикла сканирования.
type ScanResult struct {
	PostsFound    int     `json:"posts_found"`
	PostsQueued   int     `json:"posts_queued"`
	PostsFailed   int     `json:"posts_failed"`
	QueuedPostIDs []int64 `json:"queued_post_ids"`
	Manual        bool    `json:"manual"`
	StartedAt     string  `json:"started_at"`
	FinishedAt    string  `json:"finished_at"`
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
	Lock     LockResponse `json:"lock"`
	LastScan *ScanResult  `json:"last_scan"`
}

// HistoryEntryResponse — запись истории публикации.
type HistoryEntryResponse struct {
	Platform       string `json:"platform"`
	Success        bool   `json:"success"`
	ExternalPostID string `json:"external_post_id,omitempty"`
	ExternalURL    string `json:"external_url,omitempty"`
	Error          string `json:"error,omitempty"`
	AttemptedAt    string `json:"attempted_at"`
}

// PostHistoryResponse — история публикаций поста.
type PostHistoryResponse struct {
	PostID           int64                  `json:"post_id"`
	TenantID         string                 `json:"tenant_id"`
	Status           string                 `json:"status"`
	Entries          []HistoryEntryResponse `json:"entries"`
	PendingPlatforms []string               `json:"pending_platforms"`
}

// --- Request types ---

// TriggerScanRequest — ручной запуск сканирования.
type TriggerScanRequest struct {
	BatchSize int `json:"batch_size,omitempty"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Relay API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Scans ---

// TriggerScan ставит ручной цикл сканирования.
func (c *Client) TriggerScan(batchSize int) (*TriggerScanResponse, error) {
	var resp TriggerScanResponse
	err := c.post("/api/v1/scans", TriggerScanRequest{BatchSize: batchSize}, &resp)
	return &resp, err
}

// ScanStatus возвращает состояние сканера.
func (c *Client) ScanStatus() (*ScanStatusResponse, error) {
	var resp ScanStatusResponse
	err := c.get("/api/v1/scans/status", nil, &resp)
	return &resp, err
}

// --- Posts ---

// PostHistory возвращает историю публикаций поста.
func (c *Client) PostHistory(postID int64, tenantID string) (*PostHistoryResponse, error) {
	params := url.Values{}
	params.Set("tenant_id", tenantID)

	var resp PostHistoryResponse
	err := c.get("/api/v1/posts/"+strconv.FormatInt(postID, 10)+"/history", params, &resp)
	return &resp, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
