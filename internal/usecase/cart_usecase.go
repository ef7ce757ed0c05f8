package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック。
// リクエストごとにCartStoreを開き、ユーザーのサーバー側カートに結びつける。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
	log         *slog.Logger
}

func NewCartUsecase(cartRepo repo.CartRepository, productRepo repo.ProductRepository, logger *slog.Logger) *CartUsecase {
	return &CartUsecase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		log:         logger,
	}
}

type CartItemResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int64           `json:"quantity"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Count int64              `json:"count"`
	Total decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID string
	Size      string
	Color     string
	Quantity  int64
}

// 対象行は (商品, サイズ, 色)
type UpdateCartItemInput struct {
	ProductID string
	Size      string
	Color     string
	Quantity  int64
}

func (in UpdateCartItemInput) key() model.CartLineKey {
	return model.CartLineKey{ProductID: strings.TrimSpace(in.ProductID), Size: strings.TrimSpace(in.Size), Color: strings.TrimSpace(in.Color)}
}

// Open はユーザーのカートを読み込んだCartStoreを返す（チェックアウトでも使う）
func (u *CartUsecase) Open(ctx context.Context, userID string) (*CartStore, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	// サーバー側には端末ローカルの保存先は無いので、読めないまま書くと保存済みのカートを消してしまう
	store := NewCartStore(nil, u.cartRepo, u.log)
	if err := store.LoadStrict(ctx, Identity{UserID: userID}); err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return store, nil
}

func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartResponse, error) {
	store, err := u.Open(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	return BuildCartResponse(store), nil
}

// AddToCart は追加時点の商品名・価格をカートに写す。在庫は見ない。
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, in AddCartInput) (CartResponse, error) {
	store, err := u.Open(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, strings.TrimSpace(in.ProductID))
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}

	size := strings.TrimSpace(in.Size)
	if len(p.StockBySize) > 0 {
		if size == "" {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "size required")
		}
		if _, ok := p.StockBySize[size]; !ok {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid size")
		}
	}

	if err := store.Add(ctx, model.CartLine{
		ProductID:     p.ID,
		Name:          p.Name,
		UnitPrice:     p.Price,
		ImageRef:      p.ImageRef,
		SelectedSize:  size,
		SelectedColor: strings.TrimSpace(in.Color),
		Quantity:      in.Quantity,
	}); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}
	store.Flush()

	return BuildCartResponse(store), nil
}

// 数量変更（0以下は削除）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID string, in UpdateCartItemInput) (CartResponse, error) {
	store, err := u.Open(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	store.SetQuantity(ctx, in.key(), in.Quantity)
	store.Flush()
	return BuildCartResponse(store), nil
}

// 明細削除（無くてもエラーにしない）
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID string, in UpdateCartItemInput) (CartResponse, error) {
	store, err := u.Open(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	if strings.TrimSpace(in.ProductID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	store.Remove(ctx, in.key())
	store.Flush()
	return BuildCartResponse(store), nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID string) (CartResponse, error) {
	store, err := u.Open(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	store.Clear(ctx)
	store.Flush()
	return BuildCartResponse(store), nil
}

// CartStoreの中身をレスポンスの形にする
func BuildCartResponse(store *CartStore) CartResponse {
	lines := store.Lines()
	items := make([]CartItemResponse, 0, len(lines))
	var count int64
	for _, l := range lines {
		items = append(items, CartItemResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice,
			Image:     l.ImageRef,
			Size:      l.SelectedSize,
			Color:     l.SelectedColor,
			Quantity:  l.Quantity,
		})
		count += l.Quantity
	}
	return CartResponse{Items: items, Count: count, Total: CartSubtotal(lines)}
}
