package models

// TrackRequest is the POST /track beacon payload.
// type and ad_id are required. event_id is an optional client-generated
// nonce for this specific impression/click; when present it enables the
// strongest form of deduplication. timestamp is optional RFC3339 and
// defaults to server time.
type TrackRequest struct {
	Type      string `json:"type"`
	AdID      string `json:"ad_id"`
	PageType  string `json:"page_type,omitempty"`
	PageURL   string `json:"page_url,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// TrackResponse is returned by POST /track.
// Deduped reports whether a real dedup key could be built; when false
// the event was recorded unconditionally under a generated key.
// Duplicate indicates idempotent success (the event already existed).
type TrackResponse struct {
	StorageKey  string `json:"storage_key"`
	PageKey     string `json:"page_key"`
	IdentityKey string `json:"identity_key,omitempty"`
	Deduped     bool   `json:"deduped"`
	Duplicate   bool   `json:"duplicate"`
}
