package api

import (
	"net/http"
	"strconv"
)

// GetPostHistory возвращает историю публикаций поста.
// GET /api/v1/posts/{id}/history?tenant_id=...
func (h *Handler) GetPostHistory(w http.ResponseWriter, r *http.Request) {
	postID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || postID <= 0 {
		badRequest(w, r, "invalid post id")
		return
	}

	tenantID := r.URL.Query().Get("tenant_id")
	if tenantID == "" {
		badRequest(w, r, "tenant_id is required")
		return
	}

	post, err := h.posts.Get(r.Context(), postID, tenantID)
	if handleRepoError(w, r, h.logger, err, "post not found") {
		return
	}

	entries, err := h.history.ListByPost(r.Context(), postID, tenantID)
	if handleRepoError(w, r, h.logger, err, "") {
		return
	}

	resp := PostHistoryResponse{
		PostID:           post.ID,
		TenantID:         post.TenantID,
		Status:           post.Status,
		Entries:          make([]HistoryEntryResponse, len(entries)),
		PendingPlatforms: PendingPlatforms(entries),
	}
	for i, e := range entries {
		resp.Entries[i] = HistoryEntryFromDomain(e)
	}

	respond(w, http.StatusOK, resp)
}
