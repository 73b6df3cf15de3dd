package redis

import (
	"testing"
	"time"

	"github.com/marcelsud/bookshelf-api/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 30, 0, 123, time.UTC)
	b := book.Book{
		ID:          "6540022f5baea9d8f3e2f482",
		User:        "654001ee5baea9d8f3e2f47d",
		Title:       "Dune",
		Description: "Spice must flow",
		Author:      "Frank Herbert",
		Price:       19.99,
		Category:    book.Fiction,
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
	}

	h := toHash(b)
	assert.Equal(t, "FICTION", h["category"])
	assert.Equal(t, "19.99", h["price"])

	data := make(map[string]string, len(h))
	for k, v := range h {
		data[k] = v.(string)
	}
	got, err := fromHash(data)
	require.NoError(t, err)
	assert.Equal(t, b, got)
}

func TestFromHash_Corrupt(t *testing.T) {
	_, err := fromHash(map[string]string{"price": "abc"})
	assert.ErrorContains(t, err, "parsing price")

	_, err = fromHash(map[string]string{"price": "1", "created_at": "yesterday"})
	assert.ErrorContains(t, err, "parsing created_at")
}

func TestMatches(t *testing.T) {
	dune := book.Book{Title: "Dune Messiah"}
	assert.True(t, matches(dune, ""))
	assert.True(t, matches(dune, "messiah"))
	assert.True(t, matches(dune, "DUNE"))
	assert.False(t, matches(dune, "Foundation"))
}

func TestHashKey(t *testing.T) {
	assert.Equal(t, "book:abc", hashKey("abc"))
}
