package services

import (
	"context"
	"log/slog"
	"newsroom/internal/models"
	"newsroom/internal/repository"
	"time"
)

// RedeliveryService 补发审核通知：进程退出或队列丢失导致没有分发完的文章，
// 以及仍有失败收件人的文章。已送达和未确认的收件人不会重复发送
type RedeliveryService struct {
	dispatcher    *Dispatcher
	notifier      ApprovalNotifier
	articles      repository.ArticleRepository
	notifications repository.NotificationRepository

	Interval    time.Duration
	Grace       time.Duration
	MaxAttempts int
}

// NewRedeliveryService notifier 为空时直接用 dispatcher 同步补发
func NewRedeliveryService(dispatcher *Dispatcher, notifier ApprovalNotifier, articles repository.ArticleRepository, notifications repository.NotificationRepository) *RedeliveryService {
	if notifier == nil {
		notifier = dispatcher
	}
	return &RedeliveryService{
		dispatcher:    dispatcher,
		notifier:      notifier,
		articles:      articles,
		notifications: notifications,
		Interval:      10 * time.Minute,
		Grace:         2 * time.Minute,
		MaxAttempts:   dispatcher.cfg.MaxAttempts,
	}
}

// Redispatch 编辑手动补发一篇已发布文章
func (s *RedeliveryService) Redispatch(ctx context.Context, actor *models.User, id uint) (*DispatchReport, error) {
	if !CanSetApproval(actor) {
		return nil, ErrPermissionDenied
	}
	report, err := s.dispatcher.Dispatch(ctx, id)
	if err != nil {
		if report == nil {
			return nil, err
		}
		slog.Error("manual redispatch incomplete", "article_id", id, "editor_id", actor.ID, "error", err)
		return report, err
	}
	slog.Info("manual redispatch finished",
		"episode", report.EpisodeID,
		"article_id", id,
		"editor_id", actor.ID,
		"sent", report.Sent,
		"failed", len(report.Failed),
	)
	return report, nil
}

// Sweep 找出需要补发的文章交给 notifier，返回处理的文章数
func (s *RedeliveryService) Sweep(ctx context.Context) (int, error) {
	pending, err := s.articles.PendingDispatch(time.Now().Add(-s.Grace), repository.MaxListLimit)
	if err != nil {
		return 0, err
	}
	maxAttempts := s.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = int(^uint(0) >> 1)
	}
	retryable, err := s.notifications.RetryableArticles(maxAttempts, repository.MaxListLimit)
	if err != nil {
		return 0, err
	}

	seen := make(map[uint]bool, len(pending)+len(retryable))
	count := 0
	for _, id := range append(pending, retryable...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		if ctx.Err() != nil {
			return count, ctx.Err()
		}
		// 单篇分发不随 ctx 中断，否则超时记录会变成未确认
		s.notifier.Notify(context.WithoutCancel(ctx), id)
		count++
	}
	return count, nil
}

// Start 启动定时补发任务，ctx 取消后退出。Interval 不大于 0 时不启动
func (s *RedeliveryService) Start(ctx context.Context) {
	if s.Interval <= 0 {
		slog.Info("redelivery sweep disabled")
		return
	}
	ticker := time.NewTicker(s.Interval)
	go func() {
		defer ticker.Stop()
		// 启动时立即执行一次，补上次退出前没发完的
		s.runSweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runSweep(ctx)
			}
		}
	}()
}

func (s *RedeliveryService) runSweep(ctx context.Context) {
	count, err := s.Sweep(ctx)
	if err != nil {
		slog.Error("redelivery sweep failed", "error", err)
		return
	}
	if count > 0 {
		slog.Info("redelivery sweep finished", "articles", count)
	}
}
