// Package cursor implements the opaque pagination token.
//
// A token is base64(JSON) of the last returned item's sort position: the
// primary sort-key value, the createdAt/id tiebreak, and the sortBy it was
// minted under. All pagination state lives in the token; the server keeps no
// cursor state between calls. A token minted under one sortBy is rejected
// under another instead of silently restarting at page 1.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gravyprompts/gravyd/internal/domain"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
)

// Cursor is a decoded resume position in a sorted result sequence.
type Cursor struct {
	SortBy request.SortBy `json:"s"`
	// Score is the primary key for relevance sorts.
	Score float64 `json:"k,omitempty"`
	// IntKey is the primary key for createdAt (UnixNano) and counter sorts.
	IntKey int64 `json:"i,omitempty"`
	// CreatedAt (UnixNano) and ID are the tiebreak position.
	CreatedAt int64  `json:"c"`
	ID        string `json:"id"`
}

// Encode serializes the cursor into an opaque token.
func Encode(c Cursor) string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// Decode parses a token and checks it was minted under the given sortBy.
// All failures wrap domain.ErrInvalidCursor.
func Decode(token string, sortBy request.SortBy) (Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}
	if c.ID == "" {
		return Cursor{}, fmt.Errorf("%w: missing tiebreak id", domain.ErrInvalidCursor)
	}
	if c.SortBy != sortBy {
		return Cursor{}, fmt.Errorf(
			"%w: token was issued for sortBy=%s, request uses sortBy=%s",
			domain.ErrInvalidCursor, c.SortBy, sortBy,
		)
	}
	return c, nil
}
