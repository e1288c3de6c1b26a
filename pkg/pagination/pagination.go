// Package pagination implements keyset pages over monotonic int64 ids.
// Cursors are opaque, URL safe tokens naming the last id already served.
package pagination

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100

	cursorVersion = "v1:"
)

// ErrInvalidCursor is returned for any token EncodeCursor could not have produced.
var ErrInvalidCursor = errors.New("invalid cursor")

// Params is what list endpoints accept.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor resumes a listing after ID.
type Cursor struct {
	ID int64
}

type Page[T any] struct {
	Items      []T    `json:"items"`
	Total      int64  `json:"total"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NormalizeLimit clamps limit into [1, MaxLimit], using DefaultLimit when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// LimitWithBuffer asks the store for one extra row so Trim can tell whether
// another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func EncodeCursor(cursor Cursor) string {
	raw := cursorVersion + strconv.FormatInt(cursor.ID, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor returns nil for a blank token.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	digits, ok := strings.CutPrefix(string(raw), cursorVersion)
	if !ok {
		return nil, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrInvalidCursor
	}
	return &Cursor{ID: id}, nil
}

// Trim cuts rows fetched with LimitWithBuffer down to the page size and
// returns the cursor for the following page, empty on the last one.
func Trim[T any](rows []T, limit int, idOf func(T) int64) ([]T, string) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, EncodeCursor(Cursor{ID: idOf(rows[len(rows)-1])})
}
