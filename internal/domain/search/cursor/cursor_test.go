package cursor

import (
	"errors"
	"testing"

	"github.com/gravyprompts/gravyd/internal/domain"
	"github.com/gravyprompts/gravyd/internal/domain/search/request"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	in := Cursor{
		SortBy:    request.SortRelevance,
		Score:     97.5,
		CreatedAt: 1717243200000000000,
		ID:        "tpl-42",
	}

	out, err := Decode(Encode(in), request.SortRelevance)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch:\ngot:  %+v\nwant: %+v", out, in)
	}
}

func TestDecode_Garbage(t *testing.T) {
	for _, token := range []string{"not base64!!", "bm90IGpzb24", ""} {
		if _, err := Decode(token, request.SortCreatedAt); !errors.Is(err, domain.ErrInvalidCursor) {
			t.Errorf("token %q: expected ErrInvalidCursor, got %v", token, err)
		}
	}
}

func TestDecode_SortByMismatch(t *testing.T) {
	token := Encode(Cursor{SortBy: request.SortRelevance, Score: 10, ID: "a"})

	_, err := Decode(token, request.SortCreatedAt)
	if !errors.Is(err, domain.ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor for sortBy mismatch, got %v", err)
	}
}

func TestDecode_MissingID(t *testing.T) {
	token := Encode(Cursor{SortBy: request.SortCreatedAt, IntKey: 5})

	_, err := Decode(token, request.SortCreatedAt)
	if !errors.Is(err, domain.ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor for missing id, got %v", err)
	}
}
