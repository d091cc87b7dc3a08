package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormCategoryRelationRepository implements
// catalog.CategoryRelationRepository using GORM.
type GormCategoryRelationRepository struct {
	db *gorm.DB
}

// NewGormCategoryRelationRepository creates the repository, migrating
// the relation table in the environment's database.
func NewGormCategoryRelationRepository(db *Database) (*GormCategoryRelationRepository, error) {
	if err := db.DB.AutoMigrate(&catalog.CategoryRelation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate category relations: %w", err)
	}
	return &GormCategoryRelationRepository{db: db.DB}, nil
}

// Create inserts a new relation
func (r *GormCategoryRelationRepository) Create(ctx context.Context, rel *catalog.CategoryRelation) error {
	return r.db.WithContext(ctx).Create(rel).Error
}

// FindByID finds a relation by its ID
func (r *GormCategoryRelationRepository) FindByID(ctx context.Context, id uint) (*catalog.CategoryRelation, error) {
	var rel catalog.CategoryRelation
	if err := r.db.WithContext(ctx).First(&rel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rel, nil
}

// FindAll returns every relation ordered by category then subcategory
func (r *GormCategoryRelationRepository) FindAll(ctx context.Context) ([]catalog.CategoryRelation, error) {
	var rels []catalog.CategoryRelation
	if err := r.db.WithContext(ctx).
		Order("category ASC, subcategory ASC").
		Find(&rels).Error; err != nil {
		return nil, err
	}
	return rels, nil
}

// FindActive returns only active relations
func (r *GormCategoryRelationRepository) FindActive(ctx context.Context) ([]catalog.CategoryRelation, error) {
	var rels []catalog.CategoryRelation
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category ASC, subcategory ASC").
		Find(&rels).Error; err != nil {
		return nil, err
	}
	return rels, nil
}

// Update saves a modified relation
func (r *GormCategoryRelationRepository) Update(ctx context.Context, rel *catalog.CategoryRelation) error {
	result := r.db.WithContext(ctx).Model(&catalog.CategoryRelation{}).
		Where("id = ?", rel.ID).
		Updates(map[string]any{
			"category":    rel.Category,
			"subcategory": rel.Subcategory,
			"is_active":   rel.IsActive,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Toggle flips a relation's active flag and returns the updated row
func (r *GormCategoryRelationRepository) Toggle(ctx context.Context, id uint) (*catalog.CategoryRelation, error) {
	rel, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rel.IsActive = !rel.IsActive
	if err := r.db.WithContext(ctx).Model(rel).Update("is_active", rel.IsActive).Error; err != nil {
		return nil, err
	}
	return rel, nil
}

// Delete removes a relation
func (r *GormCategoryRelationRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&catalog.CategoryRelation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// PopulateFromProducts clears the relation table and rebuilds it from
// the current product set in one transaction.
func (r *GormCategoryRelationRepository) PopulateFromProducts(ctx context.Context, products []map[string]any) error {
	relations := catalog.BuildCategoryRelations(products)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM "category_relations"`).Error; err != nil {
			return err
		}
		if len(relations) == 0 {
			return nil
		}
		return tx.Create(&relations).Error
	})
}

// Ensure GormCategoryRelationRepository implements the domain interface
var _ catalog.CategoryRelationRepository = (*GormCategoryRelationRepository)(nil)
