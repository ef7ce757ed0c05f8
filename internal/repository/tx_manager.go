package repository

import "context"

// トランザクション内で使う約束
// チェックアウトでは使わない（注文・明細・在庫はそれぞれ独立してコミットする）。
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	OrderComments() OrderCommentRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
