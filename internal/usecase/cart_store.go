package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
)

// 端末ローカルに保存するときのキー
const LocalCartKey = "carrito"

// Identity はカートの持ち主。UserIDが空なら未ログイン。
type Identity struct {
	UserID string
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// CartStore はメモリ上のカートを持ち、変更のたびに端末ローカルとサーバーへ全体を書き出す。
// ローカルはその場で書き、サーバーへは待たずに最新の状態だけを順に送る。
// 失敗してもメモリの状態は戻さない。
type CartStore struct {
	mu       sync.Mutex
	identity Identity
	lines    []model.CartLine

	local   repo.LocalStorage   // nilならローカル保存なし（サーバー側）
	remote  repo.CartRepository // nilならサーバー保存なし
	persist *cartPersister
	log     *slog.Logger
}

func NewCartStore(local repo.LocalStorage, remote repo.CartRepository, logger *slog.Logger) *CartStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartStore{
		lines:   []model.CartLine{},
		local:   local,
		remote:  remote,
		persist: newCartPersister(local, remote, logger),
		log:     logger,
	}
}

// Load はidentityに合わせてカートを読み直す。エラーは返さない（読めなければ空）。
//
// ログイン済み: サーバーのカートが空でなければそれを使う。空ならローカルを使い、
// ローカルが空でなければ一度だけサーバーへ書き込む。
// サーバーが読めないときはローカルだけで動く（書き戻しはしない）。
func (s *CartStore) Load(ctx context.Context, id Identity) {
	// fallbackありならエラーにはならない
	_ = s.load(ctx, id, true)
}

// LoadStrict はLoadと同じだが、サーバーの読み込み失敗をそのまま返す。
// 失敗したときカートの状態は変えない。ローカルの控えが無い場所（サーバー側）で使う。
func (s *CartStore) LoadStrict(ctx context.Context, id Identity) error {
	return s.load(ctx, id, false)
}

func (s *CartStore) load(ctx context.Context, id Identity, fallback bool) error {
	lines := []model.CartLine{}
	backfill := false

	if id.IsAnonymous() {
		lines = s.readLocal()
	} else {
		remote, err := s.readRemote(ctx, id.UserID)
		switch {
		case err != nil:
			s.log.Warn("remote cart read failed", "user_id", id.UserID, "error", err.Error())
			if !fallback {
				return fmt.Errorf("read remote cart: %w", err)
			}
			lines = s.readLocal()
		case len(remote) > 0:
			lines = remote
		default:
			local := s.readLocal()
			if len(local) > 0 {
				lines = local
				backfill = true
			}
		}
	}

	s.mu.Lock()
	s.identity = id
	s.lines = lines
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if backfill {
		s.persist.saveRemote(ctx, id.UserID, snapshot)
	}
	return nil
}

func (s *CartStore) readLocal() []model.CartLine {
	if s.local == nil {
		return []model.CartLine{}
	}
	blob, ok, err := s.local.Get(LocalCartKey)
	if err != nil {
		s.log.Warn("local cart read failed", "error", err.Error())
		return []model.CartLine{}
	}
	if !ok {
		return []model.CartLine{}
	}
	lines, err := model.DecodeCartLines(blob)
	if err != nil {
		// 壊れた保存内容は捨てる
		s.log.Warn("local cart discarded", "error", err.Error())
		return []model.CartLine{}
	}
	return lines
}

func (s *CartStore) readRemote(ctx context.Context, userID string) ([]model.CartLine, error) {
	if s.remote == nil {
		return nil, nil
	}
	blob, err := s.remote.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lines, err := model.DecodeCartLines(blob)
	if err != nil {
		s.log.Warn("remote cart discarded", "user_id", userID, "error", err.Error())
		return nil, nil
	}
	return lines, nil
}

// Add は同じ(商品,サイズ,色)なら数量を足し、無ければ末尾に追加する。在庫は見ない。
func (s *CartStore) Add(ctx context.Context, line model.CartLine) error {
	if line.ProductID == "" {
		return &FieldError{Field: "productId", Message: "is required"}
	}
	if line.Quantity < 1 {
		return &FieldError{Field: "quantity", Message: "must be at least 1"}
	}
	if line.UnitPrice.IsNegative() {
		return &FieldError{Field: "unitPrice", Message: "must not be negative"}
	}

	s.mu.Lock()
	if i := s.indexLocked(line.Key()); i >= 0 {
		s.lines[i].Quantity += line.Quantity
	} else {
		s.lines = append(s.lines, line)
	}
	id, snapshot := s.identity, s.snapshotLocked()
	s.mu.Unlock()

	s.persist.save(ctx, id, snapshot)
	return nil
}

// Remove は該当行を消す。無ければ何もしない。
func (s *CartStore) Remove(ctx context.Context, key model.CartLineKey) {
	s.mu.Lock()
	i := s.indexLocked(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	id, snapshot := s.identity, s.snapshotLocked()
	s.mu.Unlock()

	s.persist.save(ctx, id, snapshot)
}

// SetQuantity は数量を置き換える。0以下はRemoveと同じ。
func (s *CartStore) SetQuantity(ctx context.Context, key model.CartLineKey, qty int64) {
	if qty <= 0 {
		s.Remove(ctx, key)
		return
	}

	s.mu.Lock()
	i := s.indexLocked(key)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.lines[i].Quantity = qty
	id, snapshot := s.identity, s.snapshotLocked()
	s.mu.Unlock()

	s.persist.save(ctx, id, snapshot)
}

func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.lines = []model.CartLine{}
	id := s.identity
	s.mu.Unlock()

	s.persist.save(ctx, id, []model.CartLine{})
}

func (s *CartStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartSubtotal(s.lines)
}

// Lines は現在の行のコピー
func (s *CartStore) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// 行数ではなく数量の合計（ヘッダーのバッジ用）
func (s *CartStore) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *CartStore) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Flush はサーバーへの保存が終わるまで待つ
func (s *CartStore) Flush() {
	s.persist.wait()
}

func (s *CartStore) indexLocked(key model.CartLineKey) int {
	for i, l := range s.lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}

func (s *CartStore) snapshotLocked() []model.CartLine {
	out := make([]model.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// カート全体の保存。結果は呼び出し側に返さない。
// ローカルは同期で書く。サーバーはユーザーごとに最新のものだけを順に書く。
type cartPersister struct {
	local  repo.LocalStorage
	remote repo.CartRepository
	bg     *latestWriter
	log    *slog.Logger
}

func newCartPersister(local repo.LocalStorage, remote repo.CartRepository, logger *slog.Logger) *cartPersister {
	return &cartPersister{
		local:  local,
		remote: remote,
		bg:     newLatestWriter(logger),
		log:    logger,
	}
}

func (p *cartPersister) save(ctx context.Context, id Identity, lines []model.CartLine) {
	blob, err := model.EncodeCartLines(lines)
	if err != nil {
		p.log.Warn("cart encode failed", "user_id", id.UserID, "error", err.Error())
		return
	}

	if p.local != nil {
		if err := p.local.Set(LocalCartKey, blob); err != nil {
			p.log.Warn("local cart write failed", "user_id", id.UserID, "error", err.Error())
		}
	}
	if !id.IsAnonymous() {
		p.upsert(ctx, id.UserID, blob)
	}
}

func (p *cartPersister) saveRemote(ctx context.Context, userID string, lines []model.CartLine) {
	blob, err := model.EncodeCartLines(lines)
	if err != nil {
		p.log.Warn("cart encode failed", "user_id", userID, "error", err.Error())
		return
	}
	p.upsert(ctx, userID, blob)
}

func (p *cartPersister) upsert(ctx context.Context, userID, blob string) {
	if p.remote == nil {
		return
	}
	p.bg.Go(ctx, userID, "cart.save_remote", func(ctx context.Context) error {
		return p.remote.Upsert(ctx, userID, blob)
	}, "user_id", userID)
}

func (p *cartPersister) wait() {
	p.bg.Wait()
}
