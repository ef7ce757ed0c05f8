package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type CheckoutStep int

const (
	StepCollectingShippingInfo CheckoutStep = iota
	StepCollectingPayment
	StepReviewingOrder
	StepSubmitting
	StepSucceeded
	StepFailed
)

func (s CheckoutStep) String() string {
	switch s {
	case StepCollectingShippingInfo:
		return "collecting_shipping_info"
	case StepCollectingPayment:
		return "collecting_payment"
	case StepReviewingOrder:
		return "reviewing_order"
	case StepSubmitting:
		return "submitting"
	case StepSucceeded:
		return "succeeded"
	case StepFailed:
		return "failed"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// 確認画面に出す金額
type OrderSummary struct {
	Lines        []model.CartLine
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
}

// CheckoutSession はチェックアウト画面1回分の状態。
// 在庫は開いたときに一度だけ読み、送信時には読み直さない。
// 使い捨て（画面を離れたら捨てる）で、並行には使わない。
type CheckoutSession struct {
	uc   *CheckoutUsecase
	cart *CartStore

	step  CheckoutStep
	stock map[string]model.StockBySize

	shipping      ShippingInfo
	shippingType  model.ShippingType
	paymentMethod string
	notes         string

	message string
	result  *SubmitResult
}

// OpenSession はログイン済みのカートに対してセッションを開き、在庫をまとめて読む
func (u *CheckoutUsecase) OpenSession(ctx context.Context, cart *CartStore) (*CheckoutSession, error) {
	if cart.Identity().IsAnonymous() {
		return nil, &FieldError{Field: "user", Message: "login is required to place an order"}
	}
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, &FieldError{Field: "cart", Message: "is empty"}
	}

	stock, err := u.PrefetchStock(ctx, lines)
	if err != nil {
		u.log.Warn("checkout stock prefetch failed", "user_id", cart.Identity().UserID, "error", err.Error())
		return nil, err
	}

	return &CheckoutSession{
		uc:           u,
		cart:         cart,
		step:         StepCollectingShippingInfo,
		stock:        stock,
		shippingType: model.ShippingStandard,
	}, nil
}

func (s *CheckoutSession) Step() CheckoutStep { return s.step }

// 直近のエラー文言（無ければ空）
func (s *CheckoutSession) Message() string { return s.message }

func (s *CheckoutSession) Result() (SubmitResult, bool) {
	if s.result == nil {
		return SubmitResult{}, false
	}
	return *s.result, true
}

// RedirectAfter は成功後に注文履歴へ移るまでの時間
func (s *CheckoutSession) RedirectAfter() time.Duration {
	return s.uc.cfg.RedirectDelay
}

func (s *CheckoutSession) SetShipping(info ShippingInfo, t model.ShippingType) error {
	if s.step != StepCollectingShippingInfo {
		return s.fail(fmt.Errorf("%w: shipping info in %s", ErrInvalidTransition, s.step))
	}
	if t == "" {
		t = model.ShippingStandard
	}
	if !t.Valid() {
		return s.fail(&FieldError{Field: "shipping_type", Message: "must be estandar or express"})
	}
	if err := info.Validate(); err != nil {
		return s.fail(err)
	}

	s.shipping = info
	s.shippingType = t
	s.message = ""
	s.step = StepCollectingPayment
	return nil
}

func (s *CheckoutSession) SetPayment(method, notes string) error {
	if s.step != StepCollectingPayment {
		return s.fail(fmt.Errorf("%w: payment in %s", ErrInvalidTransition, s.step))
	}
	method = strings.TrimSpace(method)
	if method == "" {
		return s.fail(&FieldError{Field: "payment_method", Message: "is required"})
	}

	s.paymentMethod = method
	s.notes = strings.TrimSpace(notes)
	s.message = ""
	s.step = StepReviewingOrder
	return nil
}

// Back は1つ前の入力に戻る。失敗後は確認画面に戻る。
func (s *CheckoutSession) Back() error {
	switch s.step {
	case StepCollectingPayment:
		s.step = StepCollectingShippingInfo
	case StepReviewingOrder:
		s.step = StepCollectingPayment
	case StepFailed:
		s.step = StepReviewingOrder
	default:
		return fmt.Errorf("%w: back from %s", ErrInvalidTransition, s.step)
	}
	return nil
}

// Summary は現在のカートと配送方法から金額を計算する
func (s *CheckoutSession) Summary() OrderSummary {
	lines := s.cart.Lines()
	subtotal := CartSubtotal(lines)
	shipping := ShippingCost(s.uc.cfg, s.shippingType, subtotal)
	return OrderSummary{
		Lines:        lines,
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Total:        subtotal.Add(shipping),
	}
}

// Submit は注文を確定する。確認画面か失敗後だけ実行できる。
// 成功したらカートを空にする。失敗したらFailedになり、自動で再送はしない。
func (s *CheckoutSession) Submit(ctx context.Context) (res SubmitResult, err error) {
	if s.step != StepReviewingOrder && s.step != StepFailed {
		return SubmitResult{}, fmt.Errorf("%w: submit in %s", ErrInvalidTransition, s.step)
	}

	s.step = StepSubmitting
	s.message = ""
	defer func() {
		if r := recover(); r != nil {
			s.uc.log.Error("checkout submit panicked", "panic", fmt.Sprint(r))
			res, err = SubmitResult{}, s.fail(processingFailed("submit", fmt.Errorf("panic: %v", r)))
		}
	}()

	res, err = s.uc.Submit(ctx, SubmitInput{
		UserID:        s.cart.Identity().UserID,
		Lines:         s.cart.Lines(),
		Stock:         s.stock,
		ShippingAddr:  s.shipping.Flatten(),
		PaymentMethod: s.paymentMethod,
		ShippingType:  s.shippingType,
		Notes:         s.notes,
	})
	if err != nil {
		return SubmitResult{}, s.fail(err)
	}

	s.cart.Clear(ctx)
	s.result = &res
	s.step = StepSucceeded
	return res, nil
}

// 状態は変えずに文言だけ残す。送信中の失敗だけFailedにする。
func (s *CheckoutSession) fail(err error) error {
	s.message = UserMessage(err)
	if s.step == StepSubmitting {
		s.step = StepFailed
	}
	return err
}
