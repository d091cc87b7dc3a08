package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relationKeys(rels []CategoryRelation) [][2]string {
	keys := make([][2]string, 0, len(rels))
	for _, r := range rels {
		keys = append(keys, [2]string{r.Category, r.Subcategory})
	}
	return keys
}

func TestBuildCategoryRelations(t *testing.T) {
	t.Run("one row per category and per pair", func(t *testing.T) {
		rels := BuildCategoryRelations([]map[string]any{
			{"category": "Bags", "subCategory": "Backpacks"},
			{"category": "Bags", "subCategory": "Totes"},
			{"category": "Shoes"},
		})

		assert.ElementsMatch(t, [][2]string{
			{"Bags", ""},
			{"Bags", "Backpacks"},
			{"Bags", "Totes"},
			{"Shoes", ""},
		}, relationKeys(rels))
	})

	t.Run("subcategories attributed to first category only", func(t *testing.T) {
		rels := BuildCategoryRelations([]map[string]any{
			{"category": []any{"Bags", "Travel"}, "subCategory": []any{"Backpacks"}},
		})

		assert.ElementsMatch(t, [][2]string{
			{"Bags", ""},
			{"Travel", ""},
			{"Bags", "Backpacks"},
		}, relationKeys(rels))
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		rels := BuildCategoryRelations([]map[string]any{
			{"category": "Bags", "subCategory": "Backpacks"},
			{"category": "Bags", "subCategory": "Backpacks"},
		})
		assert.Len(t, rels, 2)
	})

	t.Run("blank and missing categories skipped", func(t *testing.T) {
		rels := BuildCategoryRelations([]map[string]any{
			{"category": "  ", "subCategory": "Orphan"},
			{"subCategory": "AlsoOrphan"},
			{"category": "Valid"},
		})

		require.Len(t, rels, 1)
		assert.Equal(t, "Valid", rels[0].Category)
	})

	t.Run("new relations start active", func(t *testing.T) {
		rels := BuildCategoryRelations([]map[string]any{{"category": "Bags"}})
		require.Len(t, rels, 1)
		assert.True(t, rels[0].IsActive)
	})
}
