package catalog

import "context"

// ProductStore persists dynamic product attribute bags for one
// environment. The column set grows on demand and only shrinks on an
// explicit schema reset.
type ProductStore interface {
	// Create inserts a new product, generating an id when absent, and
	// returns the hydrated row.
	Create(ctx context.Context, attrs map[string]any) (map[string]any, error)
	// Update applies a partial attribute bag to an existing product.
	// Nil values are skipped. Returns shared.ErrNotFound when no row
	// matches.
	Update(ctx context.Context, id string, attrs map[string]any) (map[string]any, error)
	Get(ctx context.Context, id string) (map[string]any, error)
	GetAll(ctx context.Context) ([]map[string]any, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
	// EnsureColumns makes the listed columns exist, adding only the
	// genuinely new ones in a single transaction.
	EnsureColumns(ctx context.Context, names []string) error
	// ResetSchema drops the table and recreates the environment's
	// baseline DDL; dynamic columns are lost.
	ResetSchema(ctx context.Context) error
	Environment() Environment
}

// CategoryRelationRepository persists category/subcategory relations
// for one environment.
type CategoryRelationRepository interface {
	Create(ctx context.Context, rel *CategoryRelation) error
	FindByID(ctx context.Context, id uint) (*CategoryRelation, error)
	FindAll(ctx context.Context) ([]CategoryRelation, error)
	FindActive(ctx context.Context) ([]CategoryRelation, error)
	Update(ctx context.Context, rel *CategoryRelation) error
	Toggle(ctx context.Context, id uint) (*CategoryRelation, error)
	Delete(ctx context.Context, id uint) error
	// PopulateFromProducts clears and rebuilds the relation table from
	// the given product set.
	PopulateFromProducts(ctx context.Context, products []map[string]any) error
}

// Provider is the remote tabular catalog provider. Read-only: this
// core never writes back.
type Provider interface {
	// Ping is a lightweight connectivity probe.
	Ping(ctx context.Context) error
	// FetchAll retrieves the complete paged record set into memory.
	FetchAll(ctx context.Context) ([]RawRecord, error)
	// FetchSchema retrieves the remote field name and type list.
	FetchSchema(ctx context.Context) ([]FieldMeta, error)
}
