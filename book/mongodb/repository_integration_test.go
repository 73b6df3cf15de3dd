//go:build integration

package mongodb_test

import (
	"context"
	"testing"

	"github.com/marcelsud/bookshelf-api/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Integration(t *testing.T) {
	ctx := context.Background()
	container, cleanup := SetupMongoContainer(t, ctx)
	defer cleanup()

	dune := book.Book{
		User:     "654001ee5baea9d8f3e2f47d",
		Title:    "Dune",
		Author:   "Herbert",
		Price:    20,
		Category: book.Fantasy,
	}

	t.Run("insert then find", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, container.URI)

		saved, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		found, ok, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, saved.ID, found.ID)
		assert.Equal(t, dune.Title, found.Title)
		assert.Equal(t, dune.Author, found.Author)
		assert.Equal(t, dune.Price, found.Price)
		assert.Equal(t, dune.Category, found.Category)
		assert.Equal(t, dune.User, found.User)
	})

	t.Run("ids are unique", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, container.URI)

		first, err := repo.Insert(ctx, dune)
		require.NoError(t, err)
		second, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("keyword and paging", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, container.URI)
		for _, title := range []string{"Dune", "Dune Messiah", "Children of Dune", "Neuromancer"} {
			b := dune
			b.Title = title
			_, err := repo.Insert(ctx, b)
			require.NoError(t, err)
		}

		all, err := repo.FindAll(ctx, book.Filter{})
		require.NoError(t, err)
		assert.Len(t, all, 4)

		matching, err := repo.FindAll(ctx, book.Filter{Keyword: "dune"})
		require.NoError(t, err)
		assert.Len(t, matching, 3)

		page, err := repo.FindAll(ctx, book.Filter{Keyword: "dune", Page: 2, PerPage: 2})
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, container.URI)
		saved, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		title := "Updated Name"
		updated, ok, err := repo.UpdateByID(ctx, saved.ID, book.Patch{Title: &title})
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, title, updated.Title)
		assert.Equal(t, saved.Author, updated.Author)
		assert.Equal(t, saved.Price, updated.Price)
		assert.Equal(t, saved.Category, updated.Category)
		assert.Equal(t, saved.User, updated.User)
	})

	t.Run("invalid update leaves the document untouched", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, container.URI)
		saved, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		price := -1.0
		title := "Should not be written"
		_, _, err = repo.UpdateByID(ctx, saved.ID, book.Patch{Title: &title, Price: &price})
		var verr *book.ValidationError
		require.ErrorAs(t, err, &verr)

		stored, ok, err := repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Dune", stored.Title)
		assert.Equal(t, 20.0, stored.Price)
	})

	t.Run("delete returns the document once", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, container.URI)
		saved, err := repo.Insert(ctx, dune)
		require.NoError(t, err)

		deleted, ok, err := repo.DeleteByID(ctx, saved.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, saved.ID, deleted.ID)

		_, ok, err = repo.DeleteByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = repo.FindByID(ctx, saved.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("count by category", func(t *testing.T) {
		repo := CreateTestRepository(t, ctx, container.URI)
		_, err := repo.Insert(ctx, dune)
		require.NoError(t, err)
		crime := dune
		crime.Category = book.Crime
		_, err = repo.Insert(ctx, crime)
		require.NoError(t, err)

		counts, err := repo.CountByCategory(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[string]int64{"FANTASY": 1, "CRIME": 1}, counts)
	})
}
