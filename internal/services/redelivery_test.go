package services

import (
	"errors"
	"fmt"
	"newsroom/internal/models"
	"newsroom/internal/repository"
	"newsroom/internal/testutil"
	"newsroom/internal/utils"
	"strings"
	"time"
)

type failingAudience struct {
	repository.SubscriptionRepository
	err error
}

func (f *failingAudience) Audience(publisherID *uint, journalistID *uint) ([]models.User, error) {
	return nil, f.err
}

func (s *ServiceTestSuite) redelivery() *RedeliveryService {
	return NewRedeliveryService(s.dispatcher, nil, repository.NewArticleRepository(s.db), s.notifications)
}

func (s *ServiceTestSuite) countSent(email string) int {
	n := 0
	for _, to := range s.mailer.recipients() {
		if to == email {
			n++
		}
	}
	return n
}

func (s *ServiceTestSuite) TestSweepRedeliversFailedRecipientOnce() {
	author := s.user(models.RoleJournalist)
	editor := s.user(models.RoleEditor)
	a := s.user(models.RoleReader)
	b := s.user(models.RoleReader)
	for _, r := range []*models.User{a, b} {
		s.subscribe(r, models.KindJournalist, author.ID)
	}
	s.mailer.failFor[b.Email] = errors.New("452 mailbox full")

	article := testutil.CreateArticle(s.T(), s.db, author, nil, false)
	_, err := s.articles.ApproveArticle(s.ctx, editor, article.ID)
	s.Require().NoError(err)
	s.Equal(0, s.countSent(b.Email))

	// 收件人恢复后由定时任务补发
	delete(s.mailer.failFor, b.Email)
	svc := s.redelivery()
	count, err := svc.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	count, err = svc.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count)

	s.Equal(1, s.countSent(a.Email))
	s.Equal(1, s.countSent(b.Email))
	s.Len(s.poster.posts, 1)
}

func (s *ServiceTestSuite) TestSweepPicksUpUndispatchedArticle() {
	author := s.user(models.RoleJournalist)
	editor := s.user(models.RoleEditor)
	reader := s.user(models.RoleReader)
	s.subscribe(reader, models.KindJournalist, author.ID)

	// 审核后进程退出，通知没有发出
	articleRepo := repository.NewArticleRepository(s.db)
	lost := NewArticleService(articleRepo, repository.NewPublisherRepository(s.db), nil)
	article := testutil.CreateArticle(s.T(), s.db, author, nil, false)
	_, err := lost.ApproveArticle(s.ctx, editor, article.ID)
	s.Require().NoError(err)
	s.Empty(s.mailer.recipients())

	svc := s.redelivery()
	count, err := svc.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count, "recent approvals are left to the in-flight dispatch")

	s.Require().NoError(s.db.Model(&models.Article{}).Where("id = ?", article.ID).
		UpdateColumn("approved_at", time.Now().Add(-time.Hour)).Error)

	count, err = svc.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
	s.Equal([]string{reader.Email}, s.mailer.recipients())
	s.Len(s.poster.posts, 1)

	got, err := articleRepo.GetByID(article.ID)
	s.Require().NoError(err)
	s.NotNil(got.ApprovedAt)
	s.NotNil(got.DispatchedAt)

	count, err = svc.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count)
	s.Len(s.mailer.recipients(), 1)
}

func (s *ServiceTestSuite) TestSweepStopsAfterMaxAttempts() {
	author := s.user(models.RoleJournalist)
	editor := s.user(models.RoleEditor)
	reader := s.user(models.RoleReader)
	s.subscribe(reader, models.KindJournalist, author.ID)
	s.mailer.failFor[reader.Email] = errors.New("550 no such user")

	article := testutil.CreateArticle(s.T(), s.db, author, nil, false)
	_, err := s.articles.ApproveArticle(s.ctx, editor, article.ID)
	s.Require().NoError(err)

	svc := s.redelivery()
	svc.MaxAttempts = 2
	count, err := svc.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	count, err = svc.Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count)

	attempts, err := s.notifications.FailedEmailAttempts(article.ID)
	s.Require().NoError(err)
	s.Equal(2, attempts[reader.ID])
}

func (s *ServiceTestSuite) TestDispatcherSkipsExhaustedRecipients() {
	author := s.user(models.RoleJournalist)
	reader := s.user(models.RoleReader)
	s.subscribe(reader, models.KindJournalist, author.ID)
	article := testutil.CreateArticle(s.T(), s.db, author, nil, true)

	cfg := s.notifyConfig(false)
	cfg.MaxAttempts = 1
	s.mailer.failFor[reader.Email] = errors.New("550 no such user")
	d := NewDispatcher(cfg, DispatcherDeps{
		Articles:      repository.NewArticleRepository(s.db),
		Subscriptions: repository.NewSubscriptionRepository(s.db),
		Notifications: s.notifications,
		Mailer:        s.mailer,
	})

	report, err := d.Dispatch(s.ctx, article.ID)
	s.Require().NoError(err)
	s.Equal([]uint{reader.ID}, report.Failed)

	report, err = d.Dispatch(s.ctx, article.ID)
	s.Require().NoError(err)
	s.Empty(report.Failed)
	s.Equal([]uint{reader.ID}, report.Exhausted)
}

func (s *ServiceTestSuite) TestRedispatchRequiresEditor() {
	author := s.user(models.RoleJournalist)
	editor := s.user(models.RoleEditor)
	reader := s.user(models.RoleReader)
	svc := s.redelivery()

	draft := testutil.CreateArticle(s.T(), s.db, author, nil, false)
	_, err := svc.Redispatch(s.ctx, author, draft.ID)
	s.ErrorIs(err, ErrPermissionDenied)
	_, err = svc.Redispatch(s.ctx, editor, draft.ID)
	s.ErrorIs(err, ErrValidation)
	_, err = svc.Redispatch(s.ctx, editor, draft.ID+1000)
	s.ErrorIs(err, ErrNotFound)

	s.subscribe(reader, models.KindJournalist, author.ID)
	published := testutil.CreateArticle(s.T(), s.db, author, nil, true)
	report, err := svc.Redispatch(s.ctx, editor, published.ID)
	s.Require().NoError(err)
	s.Equal(1, report.Sent)

	report, err = svc.Redispatch(s.ctx, editor, published.ID)
	s.Require().NoError(err)
	s.Equal(0, report.Sent)
	s.Equal(1, report.Skipped)
}

func (s *ServiceTestSuite) TestAudienceFailureStillPostsSocial() {
	author := s.user(models.RoleJournalist)
	article := testutil.CreateArticle(s.T(), s.db, author, nil, true)

	d := NewDispatcher(s.notifyConfig(true), DispatcherDeps{
		Articles:      repository.NewArticleRepository(s.db),
		Subscriptions: &failingAudience{err: errors.New("connection reset")},
		Notifications: s.notifications,
		Mailer:        s.mailer,
		Poster:        s.poster,
	})

	report, err := d.Dispatch(s.ctx, article.ID)
	s.Error(err)
	s.Require().NotNil(report)
	s.True(report.SocialPosted)
	s.Len(s.poster.posts, 1)
	s.Empty(s.mailer.recipients())

	got, err := repository.NewArticleRepository(s.db).GetByID(article.ID)
	s.Require().NoError(err)
	s.Nil(got.DispatchedAt, "incomplete dispatch stays eligible for redelivery")
}

func (s *ServiceTestSuite) TestUnconfirmedDeliveryIsNotResent() {
	author := s.user(models.RoleJournalist)
	editor := s.user(models.RoleEditor)
	a := s.user(models.RoleReader)
	b := s.user(models.RoleReader)
	for _, r := range []*models.User{a, b} {
		s.subscribe(r, models.KindJournalist, author.ID)
	}
	s.mailer.failFor[b.Email] = fmt.Errorf("%w: sending email to %s: deadline exceeded", ErrDeliveryUnconfirmed, b.Email)

	article := testutil.CreateArticle(s.T(), s.db, author, nil, false)
	_, err := s.articles.ApproveArticle(s.ctx, editor, article.ID)
	s.Require().NoError(err)

	var rows []models.Notification
	s.Require().NoError(s.db.Where("article_id = ? AND user_id = ?", article.ID, b.ID).Find(&rows).Error)
	s.Require().Len(rows, 1)
	s.Equal(models.NotificationUnconfirmed, rows[0].Status)

	delete(s.mailer.failFor, b.Email)
	count, err := s.redelivery().Sweep(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, count)

	report, err := s.dispatcher.Dispatch(s.ctx, article.ID)
	s.Require().NoError(err)
	s.Equal(0, report.Sent)
	s.Equal(2, report.Skipped)
	s.Equal(0, s.countSent(b.Email))
}

func (s *ServiceTestSuite) TestDeleteArticleEvictsRenderedHTML() {
	author := s.user(models.RoleJournalist)
	article := testutil.CreateArticle(s.T(), s.db, author, nil, false)
	loaded, err := s.articles.GetArticle(s.ctx, author, article.ID)
	s.Require().NoError(err)
	utils.RenderArticleHTML(loaded.ID, loaded.UpdatedAt, "cached body")

	s.Require().NoError(s.articles.DeleteArticle(s.ctx, author, article.ID))

	fresh := string(utils.RenderArticleHTML(loaded.ID, loaded.UpdatedAt, "replacement body"))
	s.True(strings.Contains(fresh, "replacement body"), "stale render survived delete: %s", fresh)
}

func (s *ServiceTestSuite) TestUpdateArticleEvictsOldRender() {
	author := s.user(models.RoleJournalist)
	article := testutil.CreateArticle(s.T(), s.db, author, nil, false)
	loaded, err := s.articles.GetArticle(s.ctx, author, article.ID)
	s.Require().NoError(err)
	utils.RenderArticleHTML(loaded.ID, loaded.UpdatedAt, "first body")

	content := "second body"
	_, err = s.articles.UpdateArticle(s.ctx, author, article.ID, ArticleUpdate{Content: &content})
	s.Require().NoError(err)

	again := string(utils.RenderArticleHTML(loaded.ID, loaded.UpdatedAt, "rerendered body"))
	s.Contains(again, "rerendered body")
}
