package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_FindAllWithProductCount(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewCategoryRepository(testDB)

	notebooks := createCategory(t, testDB, "notebooks")
	phones := createCategory(t, testDB, "smartphones")
	createCategory(t, testDB, "empty")
	createNotebook(t, testDB, notebooks, "nb-1", "10")
	createNotebook(t, testDB, notebooks, "nb-2", "20")
	createSmartphone(t, testDB, phones, "ph-1", "30")

	categories, err := repo.FindAllWithProductCount()

	require.NoError(t, err)
	require.Len(t, categories, 3)
	counts := map[string]int64{}
	for _, c := range categories {
		counts[c.Slug] = c.ProductCount
	}
	assert.Equal(t, int64(2), counts["notebooks"])
	assert.Equal(t, int64(1), counts["smartphones"])
	assert.Equal(t, int64(0), counts["empty"])
}

func TestCategoryRepository_FindPageWithProductCount(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewCategoryRepository(testDB)
	for _, slug := range []string{"a", "b", "c"} {
		createCategory(t, testDB, slug)
	}

	page, total, err := repo.FindPageWithProductCount(2, 2)

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "c", page[0].Slug)
}

func TestCategoryRepository_FindBySlug(t *testing.T) {
	testDB := setupTestDB(t)
	repo := NewCategoryRepository(testDB)
	created := createCategory(t, testDB, "notebooks")

	found, err := repo.FindBySlug("notebooks")

	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}
