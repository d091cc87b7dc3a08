package catalog

import (
	"strings"
	"time"
)

// CategoryRelation links a subcategory to a category, derived from the
// current product set.
type CategoryRelation struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Category    string    `gorm:"index;not null" json:"category"`
	Subcategory string    `gorm:"index" json:"subcategory"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName overrides the gorm table name.
func (CategoryRelation) TableName() string {
	return "category_relations"
}

// BuildCategoryRelations derives the relation rows for a product set:
// one row per distinct category and one per distinct
// (category, subcategory) pair.
//
// When a product lists multiple categories, every subcategory is
// attributed to the FIRST category only. This is a documented
// approximation of the upstream data's intent, kept as-is rather than
// silently redistributed.
func BuildCategoryRelations(products []map[string]any) []CategoryRelation {
	seen := make(map[[2]string]bool)
	var relations []CategoryRelation

	add := func(category, subcategory string) {
		key := [2]string{category, subcategory}
		if category == "" || seen[key] {
			return
		}
		seen[key] = true
		relations = append(relations, CategoryRelation{
			Category:    category,
			Subcategory: subcategory,
			IsActive:    true,
		})
	}

	for _, p := range products {
		categories := toStringList(p["category"])
		for _, c := range categories {
			add(c, "")
		}
		if len(categories) == 0 {
			continue
		}
		first := categories[0]
		for _, sub := range toStringList(p["subCategory"]) {
			add(first, sub)
		}
	}
	return relations
}

// toStringList accepts a string or a string-list valued attribute.
func toStringList(v any) []string {
	switch s := v.(type) {
	case string:
		if t := strings.TrimSpace(s); t != "" {
			return []string{t}
		}
		return nil
	case []string:
		return trimNonEmpty(s)
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return trimNonEmpty(out)
	default:
		return nil
	}
}

func trimNonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
