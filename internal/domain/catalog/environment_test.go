package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	t.Run("accepts known values with noise", func(t *testing.T) {
		env, err := ParseEnvironment("  Virtual ")
		assert.NoError(t, err)
		assert.Equal(t, EnvironmentVirtual, env)

		env, err = ParseEnvironment("regular")
		assert.NoError(t, err)
		assert.Equal(t, EnvironmentRegular, env)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := ParseEnvironment("staging")
		assert.Error(t, err)
	})
}

func TestEnvironmentConventions(t *testing.T) {
	assert.Equal(t, []string{"price"}, EnvironmentVirtual.PriceColumns())
	assert.Equal(t, []string{"price1", "price2"}, EnvironmentRegular.PriceColumns())
	assert.Equal(t, []string{"stock"}, EnvironmentVirtual.StockColumns())
	assert.Equal(t, []string{"quantity", "stock"}, EnvironmentRegular.StockColumns())

	assert.Equal(t, "catalog_virtual.db", EnvironmentVirtual.DatabaseFile())
	assert.Equal(t, "catalog_regular.db", EnvironmentRegular.DatabaseFile())

	baseline := EnvironmentRegular.BaselineColumns()
	assert.Contains(t, baseline, "id")
	assert.Contains(t, baseline, "price1")
	assert.Contains(t, baseline, "quantity")
	assert.NotContains(t, baseline, "price")
}
