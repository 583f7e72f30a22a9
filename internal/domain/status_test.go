package domain

import (
	"encoding/json"
	"testing"
)

func TestPostStatus_CanPublish(t *testing.T) {
	tests := []struct {
		status PostStatus
		want   bool
	}{
		{PostStatusDraft, true},
		{PostStatusScheduled, true},
		{PostStatusPublishing, false},
		{PostStatusPublished, false},
		{PostStatusPartiallyPublished, false},
		{PostStatusFailed, false},
		{PostStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.CanPublish(); got != tt.want {
				t.Errorf("CanPublish() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPostStatus_IsTerminal(t *testing.T) {
	terminal := map[PostStatus]bool{
		PostStatusPublished:          true,
		PostStatusPartiallyPublished: true,
		PostStatusFailed:             true,
		PostStatusCancelled:          true,
	}

	for _, s := range []PostStatus{
		PostStatusDraft, PostStatusScheduled, PostStatusPublishing,
		PostStatusPublished, PostStatusPartiallyPublished, PostStatusFailed, PostStatusCancelled,
	} {
		if got := s.IsTerminal(); got != terminal[s] {
			t.Errorf("%s.IsTerminal() = %v, want %v", s, got, terminal[s])
		}
	}
}

func TestParsePostStatus(t *testing.T) {
	if s, err := ParsePostStatus("SCHEDULED"); err != nil || s != PostStatusScheduled {
		t.Errorf("ParsePostStatus(SCHEDULED) = %s, %v", s, err)
	}
	if _, err := ParsePostStatus("ARCHIVED"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParsePlatform(t *testing.T) {
	if p, err := ParsePlatform(" linkedin "); err != nil || p != PlatformLinkedIn {
		t.Errorf("ParsePlatform(linkedin) = %s, %v", p, err)
	}
	if _, err := ParsePlatform("myspace"); err == nil {
		t.Error("expected error for unknown platform")
	}
}

func TestScanResult_EmptyJSON(t *testing.T) {
	data, err := json.Marshal(EmptyScanResult())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ids, ok := raw["queued_post_ids"].([]any)
	if !ok {
		t.Fatalf("queued_post_ids = %v, want empty array", raw["queued_post_ids"])
	}
	if len(ids) != 0 {
		t.Errorf("queued_post_ids len = %d, want 0", len(ids))
	}
	if raw["posts_found"].(float64) != 0 {
		t.Errorf("posts_found = %v", raw["posts_found"])
	}
}
