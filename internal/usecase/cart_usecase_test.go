package usecase_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartUsecase() (*usecase.CartUsecase, *fakeCartRepo, *ProductRepoMock) {
	carts := newFakeCartRepo()
	products := new(ProductRepoMock)
	logger, _ := newTestLogger()
	return usecase.NewCartUsecase(carts, products, logger), carts, products
}

var shirt = model.Product{
	ID:          "p1",
	Name:        "Shirt",
	Price:       decimal.RequireFromString("10.00"),
	StockBySize: model.StockBySize{"M": 0, "L": 3},
	IsActive:    true,
}

func TestCartUsecase_AddToCart_SnapshotsProduct(t *testing.T) {
	ctx := context.Background()
	uc, carts, products := newCartUsecase()
	products.On("FindByID", mock.Anything, "p1").Return(shirt, nil)

	_, err := uc.AddToCart(ctx, "u1", usecase.AddCartInput{ProductID: "p1", Size: "L", Quantity: 1})
	require.NoError(t, err)
	// 在庫0のサイズでも入れられる（在庫はチェックアウトで見る）
	out, err := uc.AddToCart(ctx, "u1", usecase.AddCartInput{ProductID: "p1", Size: "M", Quantity: 2})
	require.NoError(t, err)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "Shirt", out.Items[0].Name)
	assert.Equal(t, int64(3), out.Count)
	assert.True(t, out.Total.Equal(decimal.NewFromInt(30)))
	assert.Len(t, carts.stored(t, "u1"), 2)
}

func TestCartUsecase_AddToCart_SizeRules(t *testing.T) {
	cases := []struct {
		name string
		size string
		want string
	}{
		{"missing", "", "size required"},
		{"unknown", "XXL", "invalid size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc, carts, products := newCartUsecase()
			products.On("FindByID", mock.Anything, "p1").Return(shirt, nil)

			_, err := uc.AddToCart(context.Background(), "u1", usecase.AddCartInput{ProductID: "p1", Size: tc.size, Quantity: 1})
			assertErrContains(t, err, tc.want)
			assert.Equal(t, 0, carts.upsertCount())
		})
	}
}

func TestCartUsecase_AddToCart_InactiveOrMissingProduct(t *testing.T) {
	uc, _, products := newCartUsecase()
	products.On("FindByID", mock.Anything, "gone").Return(model.Product{}, repo.ErrNotFound)
	products.On("FindByID", mock.Anything, "hidden").Return(model.Product{ID: "hidden"}, nil)

	_, err := uc.AddToCart(context.Background(), "u1", usecase.AddCartInput{ProductID: "gone", Quantity: 1})
	assertErrContains(t, err, "invalid")
	_, err = uc.AddToCart(context.Background(), "u1", usecase.AddCartInput{ProductID: "hidden", Quantity: 1})
	assertErrContains(t, err, "invalid")
}

func TestCartUsecase_AddToCart_Unauthorized(t *testing.T) {
	uc, _, _ := newCartUsecase()
	_, err := uc.AddToCart(context.Background(), "", usecase.AddCartInput{ProductID: "p1", Quantity: 1})
	assertErrContains(t, err, "unauthorized")
}

func TestCartUsecase_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	uc, carts, _ := newCartUsecase()
	carts.carts["u1"] = `[{"productId":"p1","selectedSize":"L","unitPrice":"10","quantity":1},{"productId":"p2","unitPrice":"5","quantity":1}]`

	out, err := uc.UpdateCartItem(ctx, "u1", usecase.UpdateCartItemInput{ProductID: "p1", Size: "L", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Count)

	out, err = uc.UpdateCartItem(ctx, "u1", usecase.UpdateCartItemInput{ProductID: "p1", Size: "L", Quantity: 0})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p2", out.Items[0].ProductID)

	// 無い行の削除はエラーにしない
	out, err = uc.DeleteCartItem(ctx, "u1", usecase.UpdateCartItemInput{ProductID: "p9"})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)

	out, err = uc.ClearCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Empty(t, carts.stored(t, "u1"))
}

func TestCartUsecase_GetCart_Empty(t *testing.T) {
	uc, _, _ := newCartUsecase()

	out, err := uc.GetCart(context.Background(), "u1")

	require.NoError(t, err)
	assert.NotNil(t, out.Items)
	assert.True(t, out.Total.IsZero())
}

func TestCartUsecase_RemoteReadFailure_DoesNotOverwriteStoredCart(t *testing.T) {
	ctx := context.Background()
	uc, carts, products := newCartUsecase()
	products.On("FindByID", mock.Anything, "p1").Return(shirt, nil)
	stored := `[{"productId":"p9","quantity":1},{"productId":"p8","quantity":2}]`
	carts.carts["u1"] = stored
	carts.findErr = errors.New("transient read timeout")

	_, err := uc.AddToCart(ctx, "u1", usecase.AddCartInput{ProductID: "p1", Size: "L", Quantity: 1})
	assertErrContains(t, err, "db error")
	var he *usecase.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, 500, he.Status)

	_, err = uc.UpdateCartItem(ctx, "u1", usecase.UpdateCartItemInput{ProductID: "p9", Quantity: 3})
	assertErrContains(t, err, "db error")
	_, err = uc.GetCart(ctx, "u1")
	assertErrContains(t, err, "db error")

	assert.Equal(t, 0, carts.upsertCount())
	assert.Equal(t, stored, carts.carts["u1"])
}
