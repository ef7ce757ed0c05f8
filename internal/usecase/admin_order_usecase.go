package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	events repo.EventPublisher
	bg     *backgroundWriter
}

func NewAdminOrderUsecase(tx repo.TransactionManager, events repo.EventPublisher, logger *slog.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, events: events, bg: newBackgroundWriter(logger)}
}

type AdminUpdateOrderStatusInput struct {
	Status string
	Note   string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderPage, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderPage{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderPage{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return OrderPage{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	out := OrderPage{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out.Total = total
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return OrderPage{}, err
	}
	return out, nil
}

// ステータス更新。変更の記録（status_changeコメント）も同じTxで残す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorID string, orderID string, in AdminUpdateOrderStatusInput) error {
	if strings.TrimSpace(actorID) == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var changed *repo.OrderEvent

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 注文取得
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			return nil
		}
		// 終端ガード
		if o.Status.Terminal() {
			return NewHTTPError(http.StatusBadRequest, "cannot change "+string(o.Status)+" order")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if _, err := r.OrderComments().Create(ctx, model.OrderComment{
			OrderID:    orderID,
			AuthorID:   actorID,
			Kind:       model.CommentKindStatusChange,
			Body:       strings.TrimSpace(in.Note),
			FromStatus: o.Status,
			ToStatus:   newStatus,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		changed = &repo.OrderEvent{
			Type:       repo.EventOrderStatusChanged,
			OrderID:    orderID,
			UserID:     o.UserID,
			Status:     string(newStatus),
			FromStatus: string(o.Status),
			Total:      o.Total.StringFixed(2),
		}
		return nil
	})
	if err != nil {
		return err
	}

	// コミット後に通知
	if changed != nil && u.events != nil {
		ev := *changed
		u.bg.Go(ctx, "event."+ev.Type, func(ctx context.Context) error {
			return u.events.Publish(ctx, ev)
		}, "order_id", ev.OrderID, "user_id", ev.UserID)
	}
	return nil
}

type OrderCommentOutput struct {
	ID         int64     `json:"id"`
	AuthorID   string    `json:"author_id"`
	Kind       string    `json:"kind"`
	Body       string    `json:"body"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// 自由コメントを追記
func (u *AdminOrderUsecase) AddComment(ctx context.Context, actorID string, orderID string, body string) (OrderCommentOutput, error) {
	if strings.TrimSpace(actorID) == "" {
		return OrderCommentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	body = strings.TrimSpace(body)
	if body == "" || len(body) > 2000 {
		return OrderCommentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var out OrderCommentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		c, err := r.OrderComments().Create(ctx, model.OrderComment{
			OrderID:  orderID,
			AuthorID: actorID,
			Kind:     model.CommentKindComment,
			Body:     body,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toCommentOutput(c)
		return nil
	})

	if err != nil {
		return OrderCommentOutput{}, err
	}
	return out, nil
}

// コメント一覧（古い順）
func (u *AdminOrderUsecase) ListComments(ctx context.Context, orderID string) ([]OrderCommentOutput, error) {
	var outs []OrderCommentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cs, err := r.OrderComments().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = make([]OrderCommentOutput, 0, len(cs))
		for _, c := range cs {
			outs = append(outs, toCommentOutput(c))
		}
		return nil
	})

	if err != nil {
		return []OrderCommentOutput{}, err
	}
	return outs, nil
}

// Wait はイベント送信の完了を待つ
func (u *AdminOrderUsecase) Wait() {
	u.bg.Wait()
}

func toCommentOutput(c model.OrderComment) OrderCommentOutput {
	return OrderCommentOutput{
		ID:         c.ID,
		AuthorID:   c.AuthorID,
		Kind:       string(c.Kind),
		Body:       c.Body,
		FromStatus: string(c.FromStatus),
		ToStatus:   string(c.ToStatus),
		CreatedAt:  c.CreatedAt,
	}
}

// 期間パラメータでtime.Timeが必要なら、handlerでtime.Parseしてここに入れる
func ParseDateTimeRFC3339(s string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	return &t, true
}
