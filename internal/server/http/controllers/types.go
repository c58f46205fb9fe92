package controllers

import "encoding/json"

// Common request/response types for HTTP controllers

// createReq represents a request to create a new feed.
type createReq struct {
	Feed      string `json:"feed"`
	Mode      string `json:"mode"`
	PageLimit int    `json:"page_limit"`
}

// appendReq represents a request to append an item to a feed.
type appendReq struct {
	Feed           string          `json:"feed"`
	Type           string          `json:"type"`
	ID             string          `json:"id"`
	Operation      string          `json:"operation"`
	IdempotencyKey string          `json:"idempotency_key"`
	Data           json.RawMessage `json:"data"`
}

// appendResp carries the position assigned to an appended item.
type appendResp struct {
	Position uint64 `json:"position"`
}

// trimReq represents a request to remove event feed items older than a cutoff.
type trimReq struct {
	Feed   string `json:"feed"`
	Before string `json:"before"`
}

// trimResp reports how many items a trim removed.
type trimResp struct {
	Removed int `json:"removed"`
}

// feedInfoJSON represents a registered feed in a list response.
type feedInfoJSON struct {
	Feed      string `json:"feed"`
	Mode      string `json:"mode"`
	PageLimit int    `json:"page_limit"`
	CreatedMs int64  `json:"created_ms"`
}

// feedStatsJSON represents statistics for a single feed.
type feedStatsJSON struct {
	Feed          string `json:"feed"`
	Mode          string `json:"mode"`
	FirstPosition uint64 `json:"first_position"`
	LastPosition  uint64 `json:"last_position"`
	Count         uint64 `json:"count"`
	Bytes         uint64 `json:"bytes"`
}
