package persistence

import (
	"context"
	"testing"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRelationRepo(t *testing.T) *GormCategoryRelationRepository {
	t.Helper()
	db, err := NewDatabaseAt(":memory:", catalog.EnvironmentVirtual)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewGormCategoryRelationRepository(db)
	require.NoError(t, err)
	return repo
}

func TestGormCategoryRelationRepository_CRUD(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		repo := newTestRelationRepo(t)

		rel := &catalog.CategoryRelation{Category: "Bags", Subcategory: "Backpacks", IsActive: true}
		require.NoError(t, repo.Create(ctx, rel))
		require.NotZero(t, rel.ID)

		found, err := repo.FindByID(ctx, rel.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bags", found.Category)
		assert.Equal(t, "Backpacks", found.Subcategory)
	})

	t.Run("find missing reports not found", func(t *testing.T) {
		repo := newTestRelationRepo(t)
		_, err := repo.FindByID(ctx, 999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("update and delete", func(t *testing.T) {
		repo := newTestRelationRepo(t)

		rel := &catalog.CategoryRelation{Category: "Bags", IsActive: true}
		require.NoError(t, repo.Create(ctx, rel))

		rel.Category = "Luggage"
		require.NoError(t, repo.Update(ctx, rel))
		found, err := repo.FindByID(ctx, rel.ID)
		require.NoError(t, err)
		assert.Equal(t, "Luggage", found.Category)

		require.NoError(t, repo.Delete(ctx, rel.ID))
		assert.ErrorIs(t, repo.Delete(ctx, rel.ID), shared.ErrNotFound)
	})

	t.Run("toggle flips active flag", func(t *testing.T) {
		repo := newTestRelationRepo(t)

		rel := &catalog.CategoryRelation{Category: "Bags", IsActive: true}
		require.NoError(t, repo.Create(ctx, rel))

		toggled, err := repo.Toggle(ctx, rel.ID)
		require.NoError(t, err)
		assert.False(t, toggled.IsActive)

		toggled, err = repo.Toggle(ctx, rel.ID)
		require.NoError(t, err)
		assert.True(t, toggled.IsActive)
	})

	t.Run("find active filters inactive rows", func(t *testing.T) {
		repo := newTestRelationRepo(t)

		require.NoError(t, repo.Create(ctx, &catalog.CategoryRelation{Category: "Active", IsActive: true}))
		inactive := &catalog.CategoryRelation{Category: "Inactive", IsActive: true}
		require.NoError(t, repo.Create(ctx, inactive))
		_, err := repo.Toggle(ctx, inactive.ID)
		require.NoError(t, err)

		active, err := repo.FindActive(ctx)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Active", active[0].Category)
	})
}

func TestGormCategoryRelationRepository_PopulateFromProducts(t *testing.T) {
	ctx := context.Background()
	repo := newTestRelationRepo(t)

	// Pre-existing rows are replaced wholesale.
	require.NoError(t, repo.Create(ctx, &catalog.CategoryRelation{Category: "Stale"}))

	products := []map[string]any{
		{"category": "Bags", "subCategory": "Backpacks"},
		{"category": "Shoes"},
	}
	require.NoError(t, repo.PopulateFromProducts(ctx, products))

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, rel := range all {
		assert.NotEqual(t, "Stale", rel.Category)
	}

	t.Run("empty product set clears the table", func(t *testing.T) {
		require.NoError(t, repo.PopulateFromProducts(ctx, nil))
		all, err := repo.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}
