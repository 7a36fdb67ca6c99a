package types

// Page wraps a list payload with the cursor-style pagination used by the
// upstream customer API.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	Total      int    `json:"total,omitempty"`
}
