package usecase_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/logging"
	repo "storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// カート保存先のフェイク（非同期で呼ばれるのでmockではなく状態で確認する）
// =====================

type fakeCartRepo struct {
	mu        sync.Mutex
	carts     map[string]string
	findErr   error
	upsertErr error
	upserts   int
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]string{}}
}

func (f *fakeCartRepo) FindByUserID(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return "", f.findErr
	}
	v, ok := f.carts[userID]
	if !ok {
		return "", repo.ErrNotFound
	}
	return v, nil
}

func (f *fakeCartRepo) Upsert(ctx context.Context, userID string, itemsJSON string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.carts[userID] = itemsJSON
	return nil
}

func (f *fakeCartRepo) stored(t *testing.T, userID string) []model.CartLine {
	t.Helper()
	f.mu.Lock()
	blob, ok := f.carts[userID]
	f.mu.Unlock()
	if !ok {
		return nil
	}
	lines, err := model.DecodeCartLines(blob)
	assert.NoError(t, err)
	return lines
}

func (f *fakeCartRepo) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.upserts
}

// 書き込みが必ず失敗するローカル保存先
type brokenLocal struct{}

func (brokenLocal) Get(key string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (brokenLocal) Set(key string, value string) error   { return errors.New("disk full") }

// =====================
// Repository mocks
// =====================

type StockRepoMock struct{ mock.Mock }

func (m *StockRepoMock) FindStockMaps(ctx context.Context, productIDs []string) (map[string]model.StockBySize, error) {
	args := m.Called(ctx, productIDs)
	out, _ := args.Get(0).(map[string]model.StockBySize)
	return out, args.Error(1)
}

func (m *StockRepoMock) FindStockMap(ctx context.Context, productID string) (model.StockBySize, error) {
	args := m.Called(ctx, productID)
	out, _ := args.Get(0).(model.StockBySize)
	return out, args.Error(1)
}

func (m *StockRepoMock) SaveStockMap(ctx context.Context, productID string, stock model.StockBySize) error {
	args := m.Called(ctx, productID, stock)
	return args.Error(0)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID string, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (string, error) {
	args := m.Called(ctx, order)
	return args.String(0), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID string, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

type OrderCommentRepoMock struct{ mock.Mock }

func (m *OrderCommentRepoMock) Create(ctx context.Context, c model.OrderComment) (model.OrderComment, error) {
	args := m.Called(ctx, c)
	out, _ := args.Get(0).(model.OrderComment)
	return out, args.Error(1)
}

func (m *OrderCommentRepoMock) ListByOrderID(ctx context.Context, orderID string) ([]model.OrderComment, error) {
	args := m.Called(ctx, orderID)
	out, _ := args.Get(0).([]model.OrderComment)
	return out, args.Error(1)
}

type EventPublisherMock struct{ mock.Mock }

func (m *EventPublisherMock) Publish(ctx context.Context, ev repo.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	comments   repo.OrderCommentRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository               { return r.orders }
func (r *TxReposMock) OrderItems() repo.OrderItemRepository       { return r.orderItems }
func (r *TxReposMock) OrderComments() repo.OrderCommentRepository { return r.comments }

// =====================
// helper
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

// ログの中身を確認したいテスト用
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger() (*slog.Logger, *logBuffer) {
	buf := &logBuffer{}
	return logging.NewWithWriter(buf, "debug"), buf
}
