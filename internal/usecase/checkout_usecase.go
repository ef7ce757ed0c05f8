package usecase

import (
	"context"
	"log/slog"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 配送先（入力はフォーム単位、保存時は1行の文字列にする）
type ShippingInfo struct {
	FullName   string `json:"full_name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (s ShippingInfo) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"full_name", s.FullName},
		{"street", s.Street},
		{"city", s.City},
		{"postal_code", s.PostalCode},
		{"country", s.Country},
		{"phone", s.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &FieldError{Field: r.field, Message: "is required"}
		}
	}
	return nil
}

// Flatten: "名前, 住所, 郵便番号 市, 県, 国 (Tel: 電話)"
func (s ShippingInfo) Flatten() string {
	parts := []string{strings.TrimSpace(s.FullName), strings.TrimSpace(s.Street)}
	parts = append(parts, strings.TrimSpace(strings.TrimSpace(s.PostalCode)+" "+strings.TrimSpace(s.City)))
	if p := strings.TrimSpace(s.Province); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, strings.TrimSpace(s.Country))
	return strings.Join(parts, ", ") + " (Tel: " + strings.TrimSpace(s.Phone) + ")"
}

type SubmitInput struct {
	UserID        string
	Lines         []model.CartLine
	Stock         map[string]model.StockBySize // PrefetchStockの結果（送信時には読み直さない）
	ShippingAddr  string
	PaymentMethod string
	ShippingType  model.ShippingType
	Notes         string
}

type SubmitResult struct {
	OrderID      string
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// CheckoutUsecase は在庫確認→注文作成→明細作成→在庫減算 を順に行う。
// トランザクションは使わない。途中で失敗したときは書いた分がそのまま残る。
type CheckoutUsecase struct {
	stock  repo.StockRepository
	orders repo.OrderRepository
	items  repo.OrderItemRepository
	events repo.EventPublisher
	cfg    config.CheckoutConfig
	bg     *backgroundWriter
	log    *slog.Logger
}

func NewCheckoutUsecase(
	stock repo.StockRepository,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	events repo.EventPublisher,
	cfg config.CheckoutConfig,
	logger *slog.Logger,
) *CheckoutUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckoutUsecase{
		stock:  stock,
		orders: orders,
		items:  items,
		events: events,
		cfg:    cfg,
		bg:     newBackgroundWriter(logger),
		log:    logger,
	}
}

func (u *CheckoutUsecase) Config() config.CheckoutConfig {
	return u.cfg
}

// PrefetchStock はサイズ指定のある行の商品について在庫mapをまとめて読む
func (u *CheckoutUsecase) PrefetchStock(ctx context.Context, lines []model.CartLine) (map[string]model.StockBySize, error) {
	seen := map[string]bool{}
	ids := []string{}
	for _, l := range lines {
		if !l.HasSize() || seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		ids = append(ids, l.ProductID)
	}
	if len(ids) == 0 {
		return map[string]model.StockBySize{}, nil
	}

	stock, err := u.stock.FindStockMaps(ctx, ids)
	if err != nil {
		return nil, processingFailed("prefetch stock", err)
	}
	return stock, nil
}

// ValidateStock は最初に足りない行を返す。スナップショットに無い商品・サイズは在庫0。
func ValidateStock(lines []model.CartLine, stock map[string]model.StockBySize) error {
	for _, l := range lines {
		if !l.HasSize() {
			continue
		}
		available := stock[l.ProductID].Available(l.SelectedSize)
		if available < l.Quantity {
			return &StockShortageError{
				ProductID: l.ProductID,
				Name:      l.Name,
				Size:      l.SelectedSize,
				Available: available,
				Requested: l.Quantity,
			}
		}
	}
	return nil
}

// Submit は注文を確定する。カートを空にするのは呼び出し側。
func (u *CheckoutUsecase) Submit(ctx context.Context, in SubmitInput) (SubmitResult, error) {
	if in.UserID == "" {
		return SubmitResult{}, &FieldError{Field: "user", Message: "login is required to place an order"}
	}
	if len(in.Lines) == 0 {
		return SubmitResult{}, &FieldError{Field: "cart", Message: "is empty"}
	}
	if !in.ShippingType.Valid() {
		return SubmitResult{}, &FieldError{Field: "shipping_type", Message: "must be estandar or express"}
	}
	if strings.TrimSpace(in.ShippingAddr) == "" {
		return SubmitResult{}, &FieldError{Field: "shipping_address", Message: "is required"}
	}
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return SubmitResult{}, &FieldError{Field: "payment_method", Message: "is required"}
	}

	// 1) 在庫確認（ここで止まれば何も書かない）
	if err := ValidateStock(in.Lines, in.Stock); err != nil {
		return SubmitResult{}, err
	}

	subtotal := CartSubtotal(in.Lines)
	shipping := ShippingCost(u.cfg, in.ShippingType, subtotal)
	total := subtotal.Add(shipping)

	// 2) 注文
	orderID, err := u.orders.Create(ctx, model.Order{
		UserID:          in.UserID,
		Total:           total,
		Status:          model.OrderStatusPending,
		ShippingAddress: in.ShippingAddr,
		PaymentMethod:   in.PaymentMethod,
		ShippingType:    in.ShippingType,
		ShippingCost:    shipping,
		Notes:           in.Notes,
	})
	if err != nil {
		return SubmitResult{}, processingFailed("create order", err)
	}

	// 3) 明細（失敗すると注文だけが残る）
	items := make([]model.OrderItem, 0, len(in.Lines))
	for _, l := range in.Lines {
		items = append(items, model.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Size:      l.SelectedSize,
			Color:     l.SelectedColor,
			ImageRef:  l.ImageRef,
		})
	}
	if err := u.items.CreateBulk(ctx, orderID, items); err != nil {
		u.log.Error("order items insert failed, order left without items", "order_id", orderID, "error", err.Error())
		return SubmitResult{}, processingFailed("create order items", err)
	}

	// 4) 在庫減算（商品ごとに読み直して書き戻す）
	for _, l := range in.Lines {
		if !l.HasSize() {
			continue
		}
		if err := u.decrementStock(ctx, l); err != nil {
			u.log.Error("stock decrement failed", "order_id", orderID, "product_id", l.ProductID, "size", l.SelectedSize, "error", err.Error())
			return SubmitResult{}, processingFailed("decrement stock", err)
		}
	}

	u.publish(ctx, repo.OrderEvent{
		Type:    repo.EventOrderPlaced,
		OrderID: orderID,
		UserID:  in.UserID,
		Status:  string(model.OrderStatusPending),
		Total:   total.StringFixed(2),
	})

	return SubmitResult{
		OrderID:      orderID,
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Total:        total,
	}, nil
}

func (u *CheckoutUsecase) decrementStock(ctx context.Context, l model.CartLine) error {
	current, err := u.stock.FindStockMap(ctx, l.ProductID)
	if err != nil {
		return err
	}
	next := current.Clone()
	next[l.SelectedSize] = next[l.SelectedSize] - l.Quantity
	return u.stock.SaveStockMap(ctx, l.ProductID, next)
}

func (u *CheckoutUsecase) publish(ctx context.Context, ev repo.OrderEvent) {
	if u.events == nil {
		return
	}
	u.bg.Go(ctx, "event."+ev.Type, func(ctx context.Context) error {
		return u.events.Publish(ctx, ev)
	}, "order_id", ev.OrderID, "user_id", ev.UserID)
}

// Wait はイベント送信の完了を待つ（終了処理・テスト用）
func (u *CheckoutUsecase) Wait() {
	u.bg.Wait()
}

// CheckoutCartInput はサーバー側で一度に受け取るチェックアウト入力
type CheckoutCartInput struct {
	Shipping      ShippingInfo       `json:"shipping"`
	ShippingType  model.ShippingType `json:"shipping_type"`
	PaymentMethod string             `json:"payment_method"`
	Notes         string             `json:"notes"`
}

// CheckoutCart はセッションを開いて各ステップを順に進め、送信まで行う
func (u *CheckoutUsecase) CheckoutCart(ctx context.Context, cart *CartStore, in CheckoutCartInput) (*CheckoutSession, error) {
	s, err := u.OpenSession(ctx, cart)
	if err != nil {
		return nil, err
	}
	if err := s.SetShipping(in.Shipping, in.ShippingType); err != nil {
		return s, err
	}
	if err := s.SetPayment(in.PaymentMethod, in.Notes); err != nil {
		return s, err
	}
	if _, err := s.Submit(ctx); err != nil {
		return s, err
	}
	return s, nil
}
