package repository

import "context"

// サーバー側のカート（ユーザーIDがキー）。中身はJSON文字列のまま扱う。
type CartRepository interface {
	// 無ければ ErrNotFound
	FindByUserID(ctx context.Context, userID string) (string, error)
	Upsert(ctx context.Context, userID string, itemsJSON string) error
}

// 端末ローカルのキーバリュー（同期get/set）。
type LocalStorage interface {
	Get(key string) (string, bool, error)
	Set(key string, value string) error
}
