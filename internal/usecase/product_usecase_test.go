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

// =====================
// ListPublicProducts
// =====================

func TestProductUsecase_ListPublicProducts_InvalidParams(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	lo := decimal.NewFromInt(50)
	hi := decimal.NewFromInt(10)

	cases := []struct {
		name string
		in   usecase.ListProductsInput
		want string
	}{
		{"page", usecase.ListProductsInput{Page: 0, Limit: 20}, "invalid page"},
		{"limit", usecase.ListProductsInput{Page: 1, Limit: 101}, "invalid limit"},
		{"negative min", usecase.ListProductsInput{Page: 1, Limit: 20, MinPrice: &neg}, "min_price must be >= 0"},
		{"min over max", usecase.ListProductsInput{Page: 1, Limit: 20, MinPrice: &lo, MaxPrice: &hi}, "min_price must be <= max_price"},
		{"sort", usecase.ListProductsInput{Page: 1, Limit: 20, Sort: "random"}, "invalid sort"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			products := new(ProductRepoMock)
			uc := usecase.NewProductUsecase(products, new(StockRepoMock))

			_, err := uc.ListPublicProducts(context.Background(), tc.in)
			assertErrContains(t, err, tc.want)
			products.AssertNotCalled(t, "ListPublic", mock.Anything, mock.Anything)
		})
	}
}

func TestProductUsecase_ListPublicProducts_TrimsQuery(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, new(StockRepoMock))

	products.On("ListPublic", mock.Anything, repo.ProductListQuery{Page: 2, Limit: 10, Q: "camiseta", Sort: "price_asc"}).
		Return([]model.Product{{ID: "p1"}}, int64(11), nil).Once()

	out, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 2, Limit: 10, Q: "  camiseta ", Sort: "price_asc"})

	require.NoError(t, err)
	assert.Equal(t, int64(11), out.Total)
	assert.Len(t, out.Items, 1)
	products.AssertExpectations(t)
}

// =====================
// GetProductDetail
// =====================

func TestProductUsecase_GetProductDetail_InactiveIsNotFound(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, new(StockRepoMock))
	products.On("FindByID", mock.Anything, "p1").Return(model.Product{ID: "p1", IsActive: false}, nil)

	_, err := uc.GetProductDetail(context.Background(), "p1")
	assertErrContains(t, err, "not found")
}

// =====================
// Admin
// =====================

func TestProductUsecase_AdminCreateProduct_RejectsNegativeStock(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, new(StockRepoMock))

	_, err := uc.AdminCreateProduct(context.Background(), "admin", usecase.AdminProductInput{
		Name:        "Shirt",
		Price:       decimal.NewFromInt(10),
		StockBySize: model.StockBySize{"M": 2, "L": -1},
	})

	assertErrContains(t, err, "stock must be >= 0")
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductUsecase_AdminCreateProduct_Success(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, new(StockRepoMock))

	products.On("Create", mock.Anything, mock.MatchedBy(func(p model.Product) bool {
		return p.Name == "Shirt" && p.StockBySize != nil && len(p.StockBySize) == 0 && p.IsActive
	})).Return(model.Product{ID: "new-id"}, nil).Once()

	id, err := uc.AdminCreateProduct(context.Background(), "admin", usecase.AdminProductInput{
		Name:     " Shirt ",
		Price:    decimal.NewFromInt(10),
		IsActive: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	products.AssertExpectations(t)
}

func TestProductUsecase_AdminUpdateProduct_NotFound(t *testing.T) {
	products := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(products, new(StockRepoMock))
	products.On("Update", mock.Anything, mock.Anything).Return(repo.ErrNotFound)

	err := uc.AdminUpdateProduct(context.Background(), "admin", "p404", usecase.AdminProductInput{Name: "x", Price: decimal.NewFromInt(1)})
	assertErrContains(t, err, "not found")
}

func TestProductUsecase_AdminSetStock(t *testing.T) {
	stock := new(StockRepoMock)
	uc := usecase.NewProductUsecase(new(ProductRepoMock), stock)
	ctx := context.Background()

	err := uc.AdminSetStock(ctx, "admin", "p1", model.StockBySize{"": 3})
	assertErrContains(t, err, "size label required")

	stock.On("SaveStockMap", mock.Anything, "p1", model.StockBySize{"M": 4}).Return(nil).Once()
	require.NoError(t, uc.AdminSetStock(ctx, "admin", "p1", model.StockBySize{"M": 4}))

	stock.On("SaveStockMap", mock.Anything, "p2", model.StockBySize{}).Return(errors.New("db down")).Once()
	err = uc.AdminSetStock(ctx, "admin", "p2", nil)
	assertErrContains(t, err, "db error")

	stock.AssertExpectations(t)
}

func TestProductUsecase_AdminGetStock_NotFound(t *testing.T) {
	stock := new(StockRepoMock)
	uc := usecase.NewProductUsecase(new(ProductRepoMock), stock)
	stock.On("FindStockMap", mock.Anything, "p404").Return(nil, repo.ErrNotFound)

	_, err := uc.AdminGetStock(context.Background(), "p404")
	assertErrContains(t, err, "not found")
}

func TestProductUsecase_AdminDeleteProduct_Unauthorized(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProductRepoMock), new(StockRepoMock))

	err := uc.AdminDeleteProduct(context.Background(), "", "p1")
	assertErrContains(t, err, "unauthorized")
}
