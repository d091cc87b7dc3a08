package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormProductStore implements catalog.ProductStore over one
// environment's sqlite file. Columns are added at runtime via ALTER
// TABLE; an in-memory registry, populated once at startup and updated
// on each successful addition, avoids a metadata query on every write.
type GormProductStore struct {
	db     *gorm.DB
	env    catalog.Environment
	logger *zap.Logger

	mu      sync.Mutex
	columns map[string]string // lowercase name -> case-preserved name
}

// NewGormProductStore creates the store, ensuring the environment's
// baseline table exists and loading the live column registry.
func NewGormProductStore(db *Database, log *zap.Logger) (*GormProductStore, error) {
	s := &GormProductStore{
		db:      db.DB,
		env:     db.Environment,
		logger:  log.Named("product_store").With(zap.String("environment", string(db.Environment))),
		columns: make(map[string]string),
	}
	if err := s.db.Exec(baselineDDL(s.env)).Error; err != nil {
		return nil, fmt.Errorf("failed to create baseline schema: %w", err)
	}
	if err := s.loadColumns(); err != nil {
		return nil, err
	}
	return s, nil
}

// Environment returns the environment this store serves.
func (s *GormProductStore) Environment() catalog.Environment {
	return s.env
}

// baselineDDL builds the environment's baseline table definition. The
// environment differences (price field count, stock field names) are
// data, not duplicated DDL.
func baselineDDL(env catalog.Environment) string {
	var b strings.Builder
	b.WriteString(`CREATE TABLE IF NOT EXISTS "products" ("id" TEXT PRIMARY KEY`)
	for _, col := range []string{"name", "brand", "colors", "category", "subCategory", "imageURL", "createdAt", "updatedAt"} {
		fmt.Fprintf(&b, ", %s TEXT", quoteIdent(col))
	}
	for _, col := range env.PriceColumns() {
		fmt.Fprintf(&b, ", %s NUMERIC DEFAULT 0", quoteIdent(col))
	}
	for _, col := range env.StockColumns() {
		fmt.Fprintf(&b, ", %s INTEGER DEFAULT 0", quoteIdent(col))
	}
	b.WriteString(")")
	return b.String()
}

// loadColumns populates the registry from the live schema.
func (s *GormProductStore) loadColumns() error {
	rows, err := s.db.Raw(`PRAGMA table_info("products")`).Rows()
	if err != nil {
		return fmt.Errorf("failed to introspect schema: %w", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = make(map[string]string)
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, ctype      string
			dflt             any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		s.columns[strings.ToLower(name)] = name
	}
	return rows.Err()
}

// EnsureColumns makes the listed columns exist, case-preserving.
// Idempotent: requested names are diffed against the registry and only
// genuinely new ones are added, all in one transaction.
func (s *GormProductStore) EnsureColumns(ctx context.Context, names []string) error {
	s.mu.Lock()
	var missing []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := s.columns[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	s.mu.Unlock()

	if len(missing) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range missing {
			ddl := fmt.Sprintf(`ALTER TABLE "products" ADD COLUMN %s TEXT`, quoteIdent(name))
			if err := tx.Exec(ddl).Error; err != nil {
				return fmt.Errorf("failed to add column %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, name := range missing {
		s.columns[strings.ToLower(name)] = name
	}
	s.mu.Unlock()

	s.logger.Info("added columns", zap.Strings("columns", missing))
	return nil
}

// EnsureColumn makes a single column exist.
func (s *GormProductStore) EnsureColumn(ctx context.Context, name string) error {
	return s.EnsureColumns(ctx, []string{name})
}

// Create inserts a new product. An id is generated when absent
// (timestamp plus random suffix); a column is ensured for every
// non-nil attribute; the insert itself is a single dynamic statement.
func (s *GormProductStore) Create(ctx context.Context, attrs map[string]any) (map[string]any, error) {
	id, _ := attrs["id"].(string)
	if id == "" {
		id = generateProductID()
	}

	now := time.Now().UTC().Format(time.RFC3339)
	row := map[string]any{"id": id, "createdAt": now, "updatedAt": now}
	for key, value := range attrs {
		if value == nil || key == "id" {
			continue
		}
		encoded, ok := s.encodeValue(key, value)
		if !ok {
			continue
		}
		row[key] = encoded
	}

	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	if err := s.EnsureColumns(ctx, keys); err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(row))
	marks := make([]string, 0, len(row))
	args := make([]any, 0, len(row))
	for key, value := range row {
		cols = append(cols, quoteIdent(key))
		marks = append(marks, "?")
		args = append(args, value)
	}
	stmt := fmt.Sprintf(`INSERT INTO "products" (%s) VALUES (%s)`,
		strings.Join(cols, ", "), strings.Join(marks, ", "))
	if err := s.db.WithContext(ctx).Exec(stmt, args...).Error; err != nil {
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	return s.Get(ctx, id)
}

// Update applies a partial attribute bag to an existing product. Nil
// values are skipped so a partial update can never overwrite a field
// to null by accident. Runs in a transaction and stamps updatedAt; a
// zero-row update reports shared.ErrNotFound.
func (s *GormProductStore) Update(ctx context.Context, id string, attrs map[string]any) (map[string]any, error) {
	row := make(map[string]any, len(attrs)+1)
	for key, value := range attrs {
		if value == nil || key == "id" {
			continue
		}
		encoded, ok := s.encodeValue(key, value)
		if !ok {
			continue
		}
		row[key] = encoded
	}
	row["updatedAt"] = time.Now().UTC().Format(time.RFC3339)

	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	if err := s.EnsureColumns(ctx, keys); err != nil {
		return nil, err
	}

	sets := make([]string, 0, len(row))
	args := make([]any, 0, len(row)+1)
	for key, value := range row {
		sets = append(sets, quoteIdent(key)+" = ?")
		args = append(args, value)
	}
	args = append(args, id)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stmt := fmt.Sprintf(`UPDATE "products" SET %s WHERE "id" = ?`, strings.Join(sets, ", "))
		result := tx.Exec(stmt, args...)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Checkpoint and compact after the write. Expensive on large
	// stores; a known perf tradeoff, not load-bearing behavior.
	s.maintain(ctx)

	return s.Get(ctx, id)
}

// Get reads one product, decoding stored values according to the
// current environment's convention.
func (s *GormProductStore) Get(ctx context.Context, id string) (map[string]any, error) {
	rows, err := s.db.WithContext(ctx).Raw(`SELECT * FROM "products" WHERE "id" = ?`, id).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, shared.ErrNotFound
	}
	return s.scanRow(rows)
}

// GetAll reads every product in the store.
func (s *GormProductStore) GetAll(ctx context.Context) ([]map[string]any, error) {
	rows, err := s.db.WithContext(ctx).Raw(`SELECT * FROM "products"`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []map[string]any
	for rows.Next() {
		bag, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, bag)
	}
	return products, rows.Err()
}

// Delete removes one product.
func (s *GormProductStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Exec(`DELETE FROM "products" WHERE "id" = ?`, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Clear removes every product row.
func (s *GormProductStore) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec(`DELETE FROM "products"`).Error
}

// Count returns the current row count.
func (s *GormProductStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM "products"`).Scan(&count).Error
	return count, err
}

// ResetSchema drops the table and recreates the environment's baseline
// DDL. Dynamic columns are lost.
func (s *GormProductStore) ResetSchema(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DROP TABLE IF EXISTS "products"`).Error; err != nil {
			return err
		}
		return tx.Exec(baselineDDL(s.env)).Error
	})
	if err != nil {
		return fmt.Errorf("failed to reset schema: %w", err)
	}
	return s.loadColumns()
}

// scanRow decodes one SQL row into an attribute bag. Any column whose
// stored value looks like an encoded array or object is JSON-decoded,
// flag columns are boolean-coerced, and the environment's price and
// stock columns are numeric-coerced. Unrecognized columns fold into
// the bag untouched.
func (s *GormProductStore) scanRow(rows interface {
	Columns() ([]string, error)
	Scan(...any) error
}) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	numeric := make(map[string]bool)
	for _, col := range s.env.NumericColumns() {
		numeric[strings.ToLower(col)] = true
	}

	bag := make(map[string]any, len(cols))
	for i, col := range cols {
		bag[col] = s.decodeValue(col, values[i], numeric)
	}
	return bag, nil
}

// encodeValue converts an attribute value to its stored form. Numeric
// columns are parsed with a zero fallback; a value that cannot be
// stringified is logged and dropped rather than aborting the write.
func (s *GormProductStore) encodeValue(key string, value any) (any, bool) {
	if s.isNumericColumn(key) {
		return decodeFloat(value), true
	}
	switch v := value.(type) {
	case string, int, int64, float64, float32:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case []catalog.AttachmentDescriptor:
		urls := make([]string, 0, len(v))
		for _, d := range v {
			urls = append(urls, d.URL)
		}
		return mustJSON(urls), true
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			s.logger.Warn("dropping unencodable attribute",
				zap.String("key", key), zap.Error(err))
			return nil, false
		}
		return string(encoded), true
	}
}

// decodeValue converts a stored column value back to its bag form.
func (s *GormProductStore) decodeValue(col string, value any, numeric map[string]bool) any {
	if value == nil {
		return nil
	}

	if b, ok := value.([]byte); ok {
		value = string(b)
	}

	lower := strings.ToLower(col)
	if numeric[lower] {
		if lower == "stock" || lower == "quantity" {
			return decodeInt(value)
		}
		return decodeFloat(value)
	}
	if isFlagColumn(col) {
		return decodeBool(value)
	}

	if str, ok := value.(string); ok {
		trimmed := strings.TrimSpace(str)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var decoded any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return decoded
			}
		}
		return str
	}
	return value
}

// isFlagColumn reports whether a column name follows the isSomething
// flag convention. The camelCase boundary matters: a name that merely
// starts with "is" (isbn) is not a flag.
func isFlagColumn(col string) bool {
	return len(col) > 2 && strings.HasPrefix(col, "is") &&
		col[2] >= 'A' && col[2] <= 'Z'
}

// isNumericColumn reports whether key is a price or stock column under
// the current environment's convention.
func (s *GormProductStore) isNumericColumn(key string) bool {
	lower := strings.ToLower(key)
	for _, col := range s.env.NumericColumns() {
		if strings.ToLower(col) == lower {
			return true
		}
	}
	return false
}

// maintain runs a WAL checkpoint and VACUUM; failures are logged only.
func (s *GormProductStore) maintain(ctx context.Context) {
	if err := s.db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		s.logger.Warn("wal checkpoint failed", zap.Error(err))
	}
	if err := s.db.WithContext(ctx).Exec("VACUUM").Error; err != nil {
		s.logger.Warn("vacuum failed", zap.Error(err))
	}
}

// generateProductID builds a remote-style id for locally created rows:
// millisecond timestamp plus a random suffix.
func generateProductID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), suffix)
}

func decodeFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func decodeInt(v any) int {
	return int(decodeFloat(v))
}

func decodeBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case float64:
		return b != 0
	case string:
		return b == "1" || strings.EqualFold(b, "true")
	default:
		return false
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// quoteIdent quotes a column name for dynamic SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Ensure GormProductStore implements catalog.ProductStore
var _ catalog.ProductStore = (*GormProductStore)(nil)
