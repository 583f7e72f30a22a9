package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) (func() *Client, func() *Output, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	clientFn := func() *Client { return NewClient(srv.URL) }
	outputFn := func() *Output { return &Output{w: stdout, errW: stderr} }
	return clientFn, outputFn, stdout, stderr
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestScanTrigger(t *testing.T) {
	var gotBody map[string]any
	clientFn, outputFn, stdout, stderr := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/scans" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeData(w, http.StatusAccepted, TriggerScanResponse{JobID: "scan:manual:1", Queued: true})
	})

	cmd := NewScanCmd(clientFn, outputFn)
	cmd.SetArgs([]string{"trigger", "--batch-size", "20"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if gotBody["batch_size"] != float64(20) {
		t.Errorf("body = %v", gotBody)
	}
	if !strings.Contains(stdout.String(), "scan:manual:1") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Scan queued") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestScanStatus_JSON(t *testing.T) {
	clientFn, _, stdout, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, ScanStatusResponse{
			Lock:     LockResponse{Key: "relay:lock:scheduled-posts", Held: true, Holder: "s1"},
			LastScan: &ScanResult{PostsFound: 2, PostsQueued: 2, QueuedPostIDs: []int64{1, 2}},
		})
	})
	outputFn := func() *Output { return &Output{jsonMode: true, w: stdout, errW: &bytes.Buffer{}} }

	cmd := NewScanCmd(clientFn, outputFn)
	cmd.SetArgs([]string{"status"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got ScanStatusResponse
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if got.Lock.Holder != "s1" || got.LastScan == nil || got.LastScan.PostsQueued != 2 {
		t.Errorf("got = %+v", got)
	}
}

func TestPostHistory(t *testing.T) {
	clientFn, outputFn, stdout, stderr := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/posts/10/history" || r.URL.Query().Get("tenant_id") != "t1" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		writeData(w, http.StatusOK, PostHistoryResponse{
			PostID: 10, TenantID: "t1", Status: "PARTIALLY_PUBLISHED",
			Entries: []HistoryEntryResponse{
				{Platform: "TWITTER", Success: true, ExternalPostID: "tw-1"},
				{Platform: "LINKEDIN", Success: false, Error: "rate limited"},
			},
			PendingPlatforms: []string{"LINKEDIN"},
		})
	})

	cmd := NewPostCmd(clientFn, outputFn)
	cmd.SetArgs([]string{"history", "10", "--tenant", "t1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	for _, want := range []string{"Post 10 [t1] PARTIALLY_PUBLISHED", "tw-1", "rate limited"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout.String())
		}
	}
	if !strings.Contains(stderr.String(), "LINKEDIN") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestPostHistory_InvalidID(t *testing.T) {
	clientFn, outputFn, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	cmd := NewPostCmd(clientFn, outputFn)
	cmd.SetArgs([]string{"history", "abc", "--tenant", "t1"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error")
	}
}

func TestClient_APIError(t *testing.T) {
	clientFn, _, _, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"post not found"}}`))
	})

	_, err := clientFn().PostHistory(1, "t1")
	if err == nil || err.Error() != "NOT_FOUND: post not found" {
		t.Errorf("err = %v", err)
	}
}

func TestScanStatus_Text(t *testing.T) {
	tests := []struct {
		name string
		st   ScanStatusResponse
		want []string
	}{
		{
			name: "held lock and last scan",
			st: ScanStatusResponse{
				Lock: LockResponse{Key: "relay:lock:scheduled-posts", Held: true, Holder: "scheduler-1", TTLRemaining: "25s"},
				LastScan: &ScanResult{
					PostsFound: 3, PostsQueued: 2, PostsFailed: 1,
					QueuedPostIDs: []int64{7, 9}, Manual: true, FinishedAt: "2026-01-02T10:00:00Z",
				},
			},
			want: []string{"scheduler-1 (ttl 25s)", "3 / 2 / 1", "7, 9", "(manual)"},
		},
		{
			name: "free lock, never scanned",
			st:   ScanStatusResponse{Lock: LockResponse{Key: "relay:lock:scheduled-posts"}},
			want: []string{"free", "Last scan:  -"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientFn, outputFn, stdout, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				writeData(w, http.StatusOK, tt.st)
			})

			cmd := NewScanCmd(clientFn, outputFn)
			cmd.SetArgs([]string{"status"})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("execute: %v", err)
			}

			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("stdout missing %q:\n%s", want, stdout.String())
				}
			}
		})
	}
}

func TestScanTrigger_AlreadyQueued(t *testing.T) {
	clientFn, outputFn, _, stderr := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusAccepted, TriggerScanResponse{JobID: "scan:manual:1", Queued: false})
	})

	cmd := NewScanCmd(clientFn, outputFn)
	cmd.SetArgs([]string{"trigger"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(stderr.String(), "Scan already queued: scan:manual:1") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
