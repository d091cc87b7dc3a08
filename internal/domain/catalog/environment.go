package catalog

import (
	"fmt"
	"strings"
)

// Environment selects the deployment convention a catalog store follows.
// Each environment owns a physically separate database file with its own
// baseline schema and price/stock field convention.
type Environment string

const (
	// EnvironmentVirtual uses a single price and a single stock column.
	EnvironmentVirtual Environment = "virtual"
	// EnvironmentRegular uses price1/price2 and quantity, with stock kept
	// for compatibility with older readers.
	EnvironmentRegular Environment = "regular"
)

// Environments lists all known environments in a stable order.
var Environments = []Environment{EnvironmentVirtual, EnvironmentRegular}

// ParseEnvironment parses a string into an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(s))) {
	case EnvironmentVirtual:
		return EnvironmentVirtual, nil
	case EnvironmentRegular:
		return EnvironmentRegular, nil
	default:
		return "", fmt.Errorf("unknown environment %q", s)
	}
}

// IsValid reports whether the environment is a known value.
func (e Environment) IsValid() bool {
	return e == EnvironmentVirtual || e == EnvironmentRegular
}

// DatabaseFile returns the environment's store file name.
func (e Environment) DatabaseFile() string {
	return fmt.Sprintf("catalog_%s.db", e)
}

// PriceColumns returns the price column names for the environment.
func (e Environment) PriceColumns() []string {
	if e == EnvironmentRegular {
		return []string{"price1", "price2"}
	}
	return []string{"price"}
}

// StockColumns returns the stock column names for the environment.
func (e Environment) StockColumns() []string {
	if e == EnvironmentRegular {
		return []string{"quantity", "stock"}
	}
	return []string{"stock"}
}

// CoreColumns returns the fixed columns shared by every environment.
// A column must exist before any row referencing it is written; the
// baseline is the superset every dynamic schema grows from.
func CoreColumns() []string {
	return []string{"id", "name", "brand", "colors", "category", "subCategory", "imageURL", "createdAt", "updatedAt"}
}

// BaselineColumns returns the environment's full baseline column set:
// the fixed core plus the environment's price and stock convention.
func (e Environment) BaselineColumns() []string {
	cols := CoreColumns()
	cols = append(cols, e.PriceColumns()...)
	cols = append(cols, e.StockColumns()...)
	return cols
}

// NumericColumns returns the columns that are numeric under this
// environment's convention. Reads coerce these per the current
// environment, not per row.
func (e Environment) NumericColumns() []string {
	return append(e.PriceColumns(), e.StockColumns()...)
}
