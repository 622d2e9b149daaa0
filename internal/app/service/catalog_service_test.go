package service

import (
	"testing"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalogTest(t *testing.T) (*testEnv, CatalogService) {
	env := setupServiceTest(t)
	return env, NewCatalogService(env.categoryRepo, env.productRepo)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{"defaults", 0, 0, 1, DefaultPageSize},
		{"clamps size", 2, 500, 2, MaxPageSize},
		{"keeps valid", 3, 20, 3, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, size := NormalizePage(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSz, size)
		})
	}
}

func TestCatalogService_ListCategories_CountsBothKinds(t *testing.T) {
	env, catalog := setupCatalogTest(t)
	mixed := env.category(t, "mixed")
	env.notebook(t, mixed, "nb", "10")
	env.smartphone(t, mixed, "ph", "20")

	categories, err := catalog.ListCategories()

	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, int64(2), categories[0].ProductCount)
}

func TestCatalogService_GetCategoryBySlug(t *testing.T) {
	env, catalog := setupCatalogTest(t)
	category := env.category(t, "notebooks")
	env.notebook(t, category, "nb-1", "10")

	detail, err := catalog.GetCategoryBySlug("notebooks")
	require.NoError(t, err)
	assert.Len(t, detail.Products, 1)

	_, err = catalog.GetCategoryBySlug("missing")
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCatalogService_ListProducts_SearchAndPaging(t *testing.T) {
	env, catalog := setupCatalogTest(t)
	category := env.category(t, "notebooks")
	for _, slug := range []string{"alpha", "beta", "gamma"} {
		env.notebook(t, category, slug, "10")
	}
	env.smartphone(t, env.category(t, "phones"), "pixel", "499")

	products, total, err := catalog.ListProducts(ProductQuery{Kind: model.ProductKindNotebook, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, products, 1)

	products, total, err = catalog.ListProducts(ProductQuery{Search: "BETA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "beta", products[0].Slug)

	products, _, err = catalog.ListProducts(ProductQuery{Search: "499"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "pixel", products[0].Slug)
}

func TestCatalogService_GetProduct(t *testing.T) {
	env, catalog := setupCatalogTest(t)
	phone := env.smartphone(t, env.category(t, "phones"), "pixel", "499")

	detail, err := catalog.GetProduct(model.ProductKindSmartphone, phone.ID)
	require.NoError(t, err)
	assert.Equal(t, phone.ID, detail.Product.ID)
	assert.NotEmpty(t, detail.Specification)

	_, err = catalog.GetProduct(model.ProductKindNotebook, phone.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	bySlug, err := catalog.GetProductBySlug("pixel")
	require.NoError(t, err)
	require.NotNil(t, bySlug.Product.Category)
	assert.Equal(t, "phones", bySlug.Product.Category.Slug)
}
