package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	gormrepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, p model.Product) model.Product {
	t.Helper()
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

// =====================
// carts
// =====================

func TestCartGormRepository_FindAndUpsert(t *testing.T) {
	ctx := context.Background()
	r := gormrepo.NewCartGormRepository(openTestDB(t))

	_, err := r.FindByUserID(ctx, "u1")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, r.Upsert(ctx, "u1", `[{"productId":"p1","quantity":1}]`))
	require.NoError(t, r.Upsert(ctx, "u1", `[]`))

	got, err := r.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)
}

// =====================
// stock
// =====================

func TestStockGormRepository_FindStockMaps_SkipsMissing(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	seedProduct(t, gdb, model.Product{ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(10), StockBySize: model.StockBySize{"M": 3}})
	seedProduct(t, gdb, model.Product{ID: "p2", Name: "Cap", Price: decimal.NewFromInt(5), StockBySize: model.StockBySize{}})

	r := gormrepo.NewStockGormRepository(gdb)
	got, err := r.FindStockMaps(ctx, []string{"p1", "p2", "nope"})

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, model.StockBySize{"M": 3}, got["p1"])
	_, ok := got["nope"]
	assert.False(t, ok)

	empty, err := r.FindStockMaps(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStockGormRepository_SaveStockMap(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	seedProduct(t, gdb, model.Product{ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(10), StockBySize: model.StockBySize{"M": 3, "L": 1}})
	r := gormrepo.NewStockGormRepository(gdb)

	require.NoError(t, r.SaveStockMap(ctx, "p1", model.StockBySize{"M": -1, "L": 1}))

	got, err := r.FindStockMap(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, model.StockBySize{"M": -1, "L": 1}, got)

	assert.ErrorIs(t, r.SaveStockMap(ctx, "nope", model.StockBySize{"M": 1}), repo.ErrNotFound)
	_, err = r.FindStockMap(ctx, "nope")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// =====================
// products
// =====================

func TestProductGormRepository_ListPublic(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	r := gormrepo.NewProductGormRepository(gdb)

	seedProduct(t, gdb, model.Product{ID: "a", Name: "Camiseta Roja", Price: decimal.NewFromInt(20), IsActive: true})
	seedProduct(t, gdb, model.Product{ID: "b", Name: "Camiseta Azul", Price: decimal.NewFromInt(10), IsActive: true})
	seedProduct(t, gdb, model.Product{ID: "c", Name: "Gorra", Price: decimal.NewFromInt(15), IsActive: true})
	seedProduct(t, gdb, model.Product{ID: "d", Name: "Camiseta Oculta", Price: decimal.NewFromInt(5), IsActive: false})
	require.NoError(t, r.SoftDelete(ctx, "c"))

	items, total, err := r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, Sort: "price_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID)
	assert.Equal(t, "a", items[1].ID)

	items, total, err = r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, Q: "ROJA"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "a", items[0].ID)

	_, err = r.FindByID(ctx, "c")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.SoftDelete(ctx, "c"), repo.ErrNotFound)
}

func TestProductGormRepository_UpdateOverwritesStock(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	r := gormrepo.NewProductGormRepository(gdb)
	seedProduct(t, gdb, model.Product{ID: "p1", Name: "Shirt", Price: decimal.NewFromInt(10), StockBySize: model.StockBySize{"M": 3, "L": 2}, IsActive: true})

	require.NoError(t, r.Update(ctx, model.Product{ID: "p1", Name: "Shirt v2", Price: decimal.NewFromInt(12), StockBySize: model.StockBySize{"S": 7}, IsActive: true}))

	got, err := r.FindByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Shirt v2", got.Name)
	assert.Equal(t, model.StockBySize{"S": 7}, got.StockBySize)

	assert.ErrorIs(t, r.Update(ctx, model.Product{ID: "nope", Name: "x"}), repo.ErrNotFound)
}

// =====================
// orders
// =====================

func TestOrderGormRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	orders := gormrepo.NewOrderGormRepository(gdb)
	items := gormrepo.NewOrderItemGormRepository(gdb)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ids := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		id, err := orders.Create(ctx, model.Order{
			UserID:          "u1",
			Total:           decimal.NewFromInt(int64(10 + i)),
			Status:          model.OrderStatusPending,
			ShippingAddress: "addr",
			PaymentMethod:   "tarjeta",
			ShippingType:    model.ShippingStandard,
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)
		ids = append(ids, id)
	}
	_, err := orders.Create(ctx, model.Order{UserID: "u2", Status: model.OrderStatusPending, ShippingType: model.ShippingStandard})
	require.NoError(t, err)

	page, total, err := orders.ListByUserID(ctx, "u1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	// 新しい順
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	require.NoError(t, items.CreateBulk(ctx, ids[0], []model.OrderItem{
		{ProductID: "p1", Name: "Shirt", UnitPrice: decimal.NewFromInt(5), Quantity: 2, Size: "M"},
		{ProductID: "p2", Name: "Cap", UnitPrice: decimal.NewFromInt(5), Quantity: 1},
	}))
	got, err := items.ListByOrderID(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[0], got[0].OrderID)
	assert.Equal(t, "M", got[0].Size)

	require.NoError(t, items.CreateBulk(ctx, ids[1], nil))
}

func TestOrderGormRepository_UpdateStatusAndListAdmin(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	orders := gormrepo.NewOrderGormRepository(gdb)

	a, err := orders.Create(ctx, model.Order{UserID: "u1", Status: model.OrderStatusPending, ShippingType: model.ShippingStandard})
	require.NoError(t, err)
	_, err = orders.Create(ctx, model.Order{UserID: "u2", Status: model.OrderStatusPending, ShippingType: model.ShippingStandard})
	require.NoError(t, err)

	require.NoError(t, orders.UpdateStatus(ctx, a, model.OrderStatusShipped))
	assert.ErrorIs(t, orders.UpdateStatus(ctx, "nope", model.OrderStatusShipped), repo.ErrNotFound)

	got, total, err := orders.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "enviado"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, a, got[0].ID)

	u2 := "u2"
	_, total, err = orders.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, UserID: &u2})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	future := time.Now().Add(time.Hour)
	_, total, err = orders.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 20, From: &future})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)

	_, err = orders.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

// =====================
// comments / tx
// =====================

func TestOrderCommentGormRepository_OldestFirst(t *testing.T) {
	ctx := context.Background()
	r := gormrepo.NewOrderCommentGormRepository(openTestDB(t))

	_, err := r.Create(ctx, model.OrderComment{OrderID: "o-1", AuthorID: "admin", Kind: model.CommentKindComment, Body: "primero"})
	require.NoError(t, err)
	c, err := r.Create(ctx, model.OrderComment{
		OrderID:    "o-1",
		AuthorID:   "admin",
		Kind:       model.CommentKindStatusChange,
		FromStatus: model.OrderStatusPending,
		ToStatus:   model.OrderStatusProcessing,
	})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)

	got, err := r.ListByOrderID(ctx, "o-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "primero", got[0].Body)
	assert.Equal(t, model.OrderStatusProcessing, got[1].ToStatus)
}

func TestTxManagerGorm_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	gdb := openTestDB(t)
	tm := gormrepo.NewTxManagerGorm(gdb)

	boom := errors.New("boom")
	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.OrderComments().Create(ctx, model.OrderComment{OrderID: "o-1", AuthorID: "admin", Kind: model.CommentKindComment, Body: "x"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, gdb.Model(&model.OrderComment{}).Count(&n).Error)
	assert.Equal(t, int64(0), n)

	err = tm.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.OrderComments().Create(ctx, model.OrderComment{OrderID: "o-1", AuthorID: "admin", Kind: model.CommentKindComment, Body: "y"})
		return err
	})
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&model.OrderComment{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
