package domain

import (
	"errors"
	"testing"
	"time"
)

func TestAggregate(t *testing.T) {
	ok := func(p Platform) PlatformResult { return PlatformResult{Platform: p, Success: true} }
	fail := func(p Platform) PlatformResult { return PlatformResult{Platform: p, Error: "rate limited"} }

	tests := []struct {
		name       string
		results    []PlatformResult
		wantStatus PostStatus
		wantErr    string
	}{
		{"all succeeded", []PlatformResult{ok(PlatformTwitter), ok(PlatformLinkedIn)}, PostStatusPublished, ""},
		{"single succeeded", []PlatformResult{ok(PlatformMastodon)}, PostStatusPublished, ""},
		{"none succeeded", []PlatformResult{fail(PlatformTwitter), fail(PlatformLinkedIn)}, PostStatusFailed, ErrTextAllFailed},
		{"mixed", []PlatformResult{ok(PlatformLinkedIn), fail(PlatformTwitter)}, PostStatusPartiallyPublished, ErrTextPartialPublish},
		{"mixed one of three", []PlatformResult{fail(PlatformLinkedIn), fail(PlatformTwitter), ok(PlatformFacebook)}, PostStatusPartiallyPublished, ErrTextPartialPublish},
		{"empty", nil, PostStatusFailed, ErrTextAllFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, errText := Aggregate(tt.results)
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
			if errText != tt.wantErr {
				t.Errorf("error = %q, want %q", errText, tt.wantErr)
			}
		})
	}
}

// Для N платформ и k успехов: PUBLISHED iff k=N, FAILED iff k=0, иначе PARTIALLY_PUBLISHED.
func TestAggregate_AllCombinations(t *testing.T) {
	for n := 1; n <= len(AllPlatforms); n++ {
		for k := 0; k <= n; k++ {
			results := make([]PlatformResult, n)
			for i := range results {
				results[i] = PlatformResult{Platform: AllPlatforms[i], Success: i < k}
			}

			status, _ := Aggregate(results)

			var want PostStatus
			switch {
			case k == n:
				want = PostStatusPublished
			case k == 0:
				want = PostStatusFailed
			default:
				want = PostStatusPartiallyPublished
			}
			if status != want {
				t.Errorf("n=%d k=%d: status = %s, want %s", n, k, status, want)
			}
		}
	}
}

func TestPost_Validate(t *testing.T) {
	tests := []struct {
		name    string
		post    Post
		wantErr error
	}{
		{"valid", Post{TargetPlatforms: []Platform{PlatformTwitter}, RetryCount: 1, MaxRetries: 3}, nil},
		{"retry equals max", Post{TargetPlatforms: []Platform{PlatformTwitter}, RetryCount: 3, MaxRetries: 3}, nil},
		{"no platforms", Post{MaxRetries: 3}, ErrNoTargetPlatforms},
		{"retry over max", Post{TargetPlatforms: []Platform{PlatformTwitter}, RetryCount: 4, MaxRetries: 3}, ErrRetryCountRange},
		{"negative retry", Post{TargetPlatforms: []Platform{PlatformTwitter}, RetryCount: -1, MaxRetries: 3}, ErrRetryCountRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.post.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPost_ApplyResults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("published sets published_at", func(t *testing.T) {
		p := &Post{Status: PostStatusPublishing}
		p.ApplyResults([]PlatformResult{{Platform: PlatformTwitter, Success: true}}, now)

		if p.Status != PostStatusPublished {
			t.Errorf("status = %s, want PUBLISHED", p.Status)
		}
		if p.PublishedAt == nil || !p.PublishedAt.Equal(now) {
			t.Errorf("published_at = %v, want %v", p.PublishedAt, now)
		}
		if p.Error != "" {
			t.Errorf("error = %q, want empty", p.Error)
		}
	})

	t.Run("partial keeps published_at empty", func(t *testing.T) {
		p := &Post{Status: PostStatusPublishing}
		p.ApplyResults([]PlatformResult{
			{Platform: PlatformLinkedIn, Success: true},
			{Platform: PlatformTwitter, Error: "rate limited"},
		}, now)

		if p.Status != PostStatusPartiallyPublished {
			t.Errorf("status = %s, want PARTIALLY_PUBLISHED", p.Status)
		}
		if p.PublishedAt != nil {
			t.Errorf("published_at = %v, want nil", p.PublishedAt)
		}
		if p.Error != ErrTextPartialPublish {
			t.Errorf("error = %q", p.Error)
		}
		if len(p.PlatformResults) != 2 {
			t.Errorf("platform_results = %d, want 2", len(p.PlatformResults))
		}
	})
}

func TestPost_ScheduleRetry(t *testing.T) {
	now := time.Now()
	p := &Post{Status: PostStatusPublishing, RetryCount: 0, MaxRetries: 3}

	for i := 1; i <= 3; i++ {
		if !p.CanRetry() {
			t.Fatalf("retry %d: CanRetry() = false", i)
		}
		p.ScheduleRetry(PostStatusScheduled, "connection refused", now)
		if p.RetryCount != i {
			t.Errorf("retry_count = %d, want %d", p.RetryCount, i)
		}
		if p.Status != PostStatusScheduled {
			t.Errorf("status = %s, want SCHEDULED", p.Status)
		}
	}

	if p.CanRetry() {
		t.Error("CanRetry() should be false after max retries")
	}
	if err := p.Validate(); err == nil {
		// TargetPlatforms пуст — ожидаем ошибку платформ, а не диапазона
		t.Error("expected validation error for empty platforms")
	} else if errors.Is(err, ErrRetryCountRange) {
		t.Errorf("retry count invariant violated: %v", err)
	}
}

func TestFailedPlatforms(t *testing.T) {
	results := []PlatformResult{
		{Platform: PlatformLinkedIn, Success: true},
		{Platform: PlatformTwitter, Error: "rate limited"},
		{Platform: PlatformThreads, Error: "token expired"},
	}

	failed := FailedPlatforms(results)
	if len(failed) != 2 || failed[0] != PlatformTwitter || failed[1] != PlatformThreads {
		t.Errorf("FailedPlatforms() = %v", failed)
	}
}

func TestHistoryFromResults(t *testing.T) {
	at := time.Now()
	post := &Post{ID: 7, TenantID: "acme"}
	results := []PlatformResult{
		{Platform: PlatformLinkedIn, Success: true, ExternalPostID: "ln-1"},
		{Platform: PlatformTwitter, Error: "rate limited"},
	}

	entries := HistoryFromResults(post, results, at)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].PostID != 7 || entries[0].TenantID != "acme" || entries[0].ExternalPostID != "ln-1" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
	if entries[1].Success || entries[1].Error != "rate limited" {
		t.Errorf("unexpected entry: %+v", entries[1])
	}
}
