package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// 呼び出し側を待たせない書き込み（カート保存・イベント送信）。
// 失敗はログに出すだけで、呼び出し側には返さない。順序は保証しない（イベント送信用）。
type backgroundWriter struct {
	log *slog.Logger
	wg  sync.WaitGroup
}

func newBackgroundWriter(log *slog.Logger) *backgroundWriter {
	if log == nil {
		log = slog.Default()
	}
	return &backgroundWriter{log: log}
}

func (b *backgroundWriter) Go(ctx context.Context, op string, fn func(ctx context.Context) error, attrs ...any) {
	// リクエスト終了でキャンセルされないように切り離す
	ctx = context.WithoutCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.Error("background write panicked", append([]any{"op", op, "panic", fmt.Sprint(r)}, attrs...)...)
			}
		}()

		if err := fn(ctx); err != nil {
			b.log.Warn("background write failed", append([]any{"op", op, "error", err.Error()}, attrs...)...)
		}
	}()
}

// Wait は実行中の書き込みを待つ（終了処理とテスト用）
func (b *backgroundWriter) Wait() {
	b.wg.Wait()
}

// latestWriter はキーごとに最新の書き込みだけを1本のgoroutineで順に流す。
// 実行待ちの古い書き込みは新しいもので置き換わる（途中の状態は書かれないことがある）。
type latestWriter struct {
	log *slog.Logger

	mu      sync.Mutex
	pending map[string]latestJob
	order   []string
	running bool
	wg      sync.WaitGroup
}

type latestJob struct {
	ctx   context.Context
	op    string
	fn    func(ctx context.Context) error
	attrs []any
}

func newLatestWriter(log *slog.Logger) *latestWriter {
	if log == nil {
		log = slog.Default()
	}
	return &latestWriter{log: log, pending: map[string]latestJob{}}
}

func (w *latestWriter) Go(ctx context.Context, key, op string, fn func(ctx context.Context) error, attrs ...any) {
	job := latestJob{ctx: context.WithoutCancel(ctx), op: op, fn: fn, attrs: attrs}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[key]; !ok {
		w.order = append(w.order, key)
	}
	w.pending[key] = job
	if w.running {
		return
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
}

func (w *latestWriter) loop() {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		if len(w.order) == 0 {
			w.running = false
			w.mu.Unlock()
			return
		}
		key := w.order[0]
		w.order = w.order[1:]
		job := w.pending[key]
		delete(w.pending, key)
		w.mu.Unlock()

		w.run(job)
	}
}

func (w *latestWriter) run(job latestJob) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("background write panicked", append([]any{"op", job.op, "panic", fmt.Sprint(r)}, job.attrs...)...)
		}
	}()
	if err := job.fn(job.ctx); err != nil {
		w.log.Warn("background write failed", append([]any{"op", job.op, "error", err.Error()}, job.attrs...)...)
	}
}

// Wait はキューが空になるまで待つ
func (w *latestWriter) Wait() {
	w.wg.Wait()
}
