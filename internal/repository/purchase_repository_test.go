package repository

import (
	"context"
	"sync"
	"testing"

	"oncult-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/gorm/utils/tests"
)

// newDryRunDB opens a gorm handle that builds SQL without executing it
// and captures every generated query.
func newDryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(tests.DummyDialector{}, &gorm.Config{DryRun: true})
	require.NoError(t, err)

	var queries []string
	err = db.Callback().Query().After("gorm:query").Register("capture_sql", func(tx *gorm.DB) {
		queries = append(queries, tx.Statement.SQL.String())
	})
	require.NoError(t, err)
	return db, &queries
}

func TestPurchaseRecordColumnNames(t *testing.T) {
	s, err := schema.Parse(&models.PurchaseRecord{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	assert.NotNil(t, s.FieldsByDBName["buyer_address"])
	assert.NotNil(t, s.FieldsByDBName["seller_address"])
	assert.Nil(t, s.FieldsByDBName["buyer"], "no bare buyer column exists")
}

func TestFindByBuyerFiltersOnBuyerAddressColumn(t *testing.T) {
	db, queries := newDryRunDB(t)
	repo := NewPurchaseRepository(db)

	_, err := repo.FindByBuyer(context.Background(), "0x742d35Cc6634C0532925a3b0F26750C66d78EB66")
	require.NoError(t, err)
	require.Len(t, *queries, 1)

	sql := (*queries)[0]
	assert.Contains(t, sql, "buyer_address = ")
	assert.NotContains(t, sql, "WHERE buyer = ")
}

func TestFindByItemFiltersOnItemID(t *testing.T) {
	db, queries := newDryRunDB(t)
	repo := NewPurchaseRepository(db)

	_, err := repo.FindByItem(context.Background(), "item-1")
	require.NoError(t, err)
	require.Len(t, *queries, 1)
	assert.Contains(t, (*queries)[0], "item_id = ")
}
