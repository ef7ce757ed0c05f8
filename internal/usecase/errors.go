package usecase

import (
	"errors"
	"fmt"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 書き込み前に止める検証エラー（画面にそのまま出せる文言）
type ValidationError interface {
	error
	validationError()
}

func AsValidationError(err error) (ValidationError, bool) {
	var ve ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

// 必須項目・形式のエラー
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) validationError() {}

// 在庫不足。最初に見つかった1件だけを返す。
type StockShortageError struct {
	ProductID string
	Name      string
	Size      string
	Available int64
	Requested int64
}

func (e *StockShortageError) Error() string {
	if e.Available <= 0 {
		return fmt.Sprintf("%q is out of stock in size %s", e.Name, e.Size)
	}
	return fmt.Sprintf("only %d left in size %s of %q (requested %d)", e.Available, e.Size, e.Name, e.Requested)
}

func (e *StockShortageError) Shortfall() int64 {
	return e.Requested - e.Available
}

func (e *StockShortageError) validationError() {}

var (
	// 注文の書き込み途中の失敗。利用者には詳細を出さない。
	ErrOrderProcessingFailed = errors.New("order processing failed")
	// 今のステップでは実行できない操作
	ErrInvalidTransition = errors.New("invalid checkout step")
)

const genericFailureMessage = "order processing failed, please try again"

func processingFailed(step string, err error) error {
	return fmt.Errorf("%w (%s): %w", ErrOrderProcessingFailed, step, err)
}

// UserMessage は画面に出す文言を返す。検証エラーは具体的に、それ以外は共通文言。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if ve, ok := AsValidationError(err); ok {
		return ve.Error()
	}
	if errors.Is(err, ErrInvalidTransition) {
		return err.Error()
	}
	return genericFailureMessage
}
