package services

import (
	"context"
	"log/slog"
	"sync"
)

// DispatchQueue 异步分发：审核请求只负责入队，后台 worker 调用分发器
type DispatchQueue struct {
	notifier ApprovalNotifier
	queue    chan uint
	pending  map[uint]bool
	closed   bool
	mu       sync.Mutex
	wg       sync.WaitGroup
}

func NewDispatchQueue(notifier ApprovalNotifier, size int) *DispatchQueue {
	if size < 1 {
		size = 1
	}
	return &DispatchQueue{
		notifier: notifier,
		queue:    make(chan uint, size),
		pending:  make(map[uint]bool),
	}
}

// Start 启动 worker，ctx 用于后台分发
func (q *DispatchQueue) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	slog.Info("dispatch queue started", "workers", workers, "capacity", cap(q.queue))
}

// Notify 同一篇文章排队期间只入队一次；队列已满或已关闭时同步分发，不丢弃
func (q *DispatchQueue) Notify(ctx context.Context, articleID uint) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.notifier.Notify(ctx, articleID)
		return
	}
	if q.pending[articleID] {
		q.mu.Unlock()
		return
	}

	select {
	case q.queue <- articleID:
		q.pending[articleID] = true
		q.mu.Unlock()
	default:
		q.mu.Unlock()
		slog.Warn("dispatch queue full, dispatching inline", "article_id", articleID)
		q.notifier.Notify(ctx, articleID)
	}
}

func (q *DispatchQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for articleID := range q.queue {
		q.mu.Lock()
		delete(q.pending, articleID)
		q.mu.Unlock()

		q.notifier.Notify(ctx, articleID)
	}
}

// Close 停止接收新任务并等待队列中的任务处理完
func (q *DispatchQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	q.wg.Wait()
	slog.Info("dispatch queue drained")
}
