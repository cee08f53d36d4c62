package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"newsroom/internal/config"
	"newsroom/internal/models"
	"newsroom/internal/repository"
	"newsroom/internal/services"
	"newsroom/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type recordingMailer struct {
	mu   sync.Mutex
	to   []string
	down map[string]bool
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down[to] {
		return errors.New("mailbox unavailable")
	}
	m.to = append(m.to, to)
	return nil
}

type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	engine *gin.Engine
	mailer *recordingMailer
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = testutil.NewDB(s.T())
	s.mailer = &recordingMailer{down: map[string]bool{}}

	userRepo := repository.NewUserRepository(s.db)
	publisherRepo := repository.NewPublisherRepository(s.db)
	articleRepo := repository.NewArticleRepository(s.db)
	subscriptionRepo := repository.NewSubscriptionRepository(s.db)
	notificationRepo := repository.NewNotificationRepository(s.db)

	dispatcher := services.NewDispatcher(config.NotifyConfig{EmailEnabled: true, SiteURL: "http://test"}, services.DispatcherDeps{
		Articles:      articleRepo,
		Subscriptions: subscriptionRepo,
		Notifications: notificationRepo,
		Mailer:        s.mailer,
	})
	subscriptionService := services.NewSubscriptionService(userRepo, publisherRepo, subscriptionRepo)
	articleService := services.NewArticleService(articleRepo, publisherRepo, dispatcher)

	s.engine = gin.New()
	Setup(s.engine, Services{
		Auth:          services.NewAuthService(userRepo, "test-secret", time.Hour),
		Articles:      articleService,
		Importer:      services.NewSyndicationImporter(articleService, articleRepo, false),
		Subscriptions: subscriptionService,
		Publishers:    services.NewPublisherService(publisherRepo, userRepo, subscriptionService),
		Notifications: services.NewNotificationService(notificationRepo),
		Newsletters:   services.NewNewsletterService(repository.NewNewsletterRepository(s.db)),
		Redelivery:    services.NewRedeliveryService(dispatcher, nil, articleRepo, notificationRepo),
	}, "test-session-secret")
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// signup 注册并登录，返回用户 ID 与令牌
func (s *APITestSuite) signup(name string, role models.Role) (uint, string) {
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"username": name,
		"email":    name + "@example.com",
		"password": "password1",
		"role":     role,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": name + "@example.com", "password": "password1"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().NotEmpty(resp.Token)
	s.NotEmpty(w.Header().Get("Set-Cookie"))
	return resp.User.ID, resp.Token
}

func decode[T any](s *APITestSuite, w *httptest.ResponseRecorder) T {
	var v T
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *APITestSuite) TestArticleWorkflow() {
	_, editor := s.signup("editor", models.RoleEditor)
	journalistID, journalist := s.signup("journo", models.RoleJournalist)
	_, reader := s.signup("reader", models.RoleReader)

	w := s.do(http.MethodPost, "/api/publishers", editor, gin.H{"name": "Daily Planet"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	publisher := decode[models.Publisher](s, w)

	w = s.do(http.MethodPost, "/api/subscriptions", reader, gin.H{"type": "publisher", "id": publisher.ID, "action": "subscribe"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/subscriptions", reader, gin.H{"type": "publisher", "id": publisher.ID, "action": "subscribe"})
	s.Equal(http.StatusConflict, w.Code)
	w = s.do(http.MethodPost, "/api/subscriptions", reader, gin.H{"type": "journalist", "id": journalistID, "action": "subscribe"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/articles", reader, gin.H{"title": "x", "content": "y"})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/articles", journalist, gin.H{"title": "Scoop", "content": "Big *news*", "publisher": publisher.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := decode[map[string]any](s, w)
	s.Equal(false, created["is_approved"])
	s.Equal("draft", created["state"])
	articleID := uint(created["id"].(float64))
	articlePath := fmt.Sprintf("/api/articles/%d", articleID)

	// 草稿对读者和匿名用户不可见
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, articlePath, reader, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, articlePath, "", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, articlePath, journalist, nil).Code)

	w = s.do(http.MethodPut, articlePath, journalist, gin.H{"is_approved": true})
	s.Equal(http.StatusForbidden, w.Code)
	w = s.do(http.MethodPut, articlePath, editor, gin.H{"author": journalistID + 100})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, articlePath+"/approve", journalist, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, articlePath+"/approve", editor, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(false, decode[map[string]any](s, w)["already_approved"])
	s.Equal([]string{"reader@example.com"}, s.mailer.to)

	w = s.do(http.MethodPost, articlePath+"/approve", editor, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, decode[map[string]any](s, w)["already_approved"])
	s.Len(s.mailer.to, 1)

	w = s.do(http.MethodGet, articlePath, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	detail := decode[map[string]any](s, w)
	s.Equal("published", detail["state"])
	s.Contains(detail["html"], "<em>news</em>")

	w = s.do(http.MethodPut, articlePath, journalist, gin.H{"title": "Scoop (updated)"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Len(s.mailer.to, 1)

	w = s.do(http.MethodGet, "/api/notifications", reader, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decode[[]models.Notification](s, w), 1)

	w = s.do(http.MethodGet, "/api/articles?status=pending", editor, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(decode[[]map[string]any](s, w))

	w = s.do(http.MethodDelete, articlePath, reader, nil)
	s.Equal(http.StatusForbidden, w.Code)
	w = s.do(http.MethodDelete, articlePath, journalist, nil)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *APITestSuite) TestDirectoryAnnotations() {
	_, editor := s.signup("ed", models.RoleEditor)
	journalistID, _ := s.signup("writer", models.RoleJournalist)
	_, reader := s.signup("fan", models.RoleReader)

	s.Require().Equal(http.StatusCreated, s.do(http.MethodPost, "/api/publishers", editor, gin.H{"name": "Bugle"}).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/subscriptions", reader,
		gin.H{"type": "journalist", "id": journalistID, "action": "subscribe"}).Code)

	w := s.do(http.MethodGet, "/api/journalists", reader, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	journalists := decode[[]services.JournalistEntry](s, w)
	s.Require().Len(journalists, 1)
	s.True(journalists[0].IsSubscribed)

	w = s.do(http.MethodGet, "/api/publishers", reader, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	publishers := decode[[]services.PublisherEntry](s, w)
	s.Require().Len(publishers, 1)
	s.False(publishers[0].IsSubscribed)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/subscriptions/status?type=journalist&id=%d", journalistID), reader, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(true, decode[map[string]any](s, w)["is_subscribed"])

	w = s.do(http.MethodPost, "/api/subscriptions", reader, gin.H{"type": "journalist", "id": journalistID, "action": "unsubscribe"})
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodPost, "/api/subscriptions", reader, gin.H{"type": "journalist", "id": journalistID, "action": "unsubscribe"})
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(http.MethodPost, "/api/subscriptions", reader, gin.H{"type": "magazine", "id": 1, "action": "subscribe"})
	s.Equal(http.StatusBadRequest, w.Code)
	w = s.do(http.MethodPost, "/api/subscriptions", editor, gin.H{"type": "journalist", "id": journalistID, "action": "subscribe"})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *APITestSuite) TestAuthBoundaries() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/articles", "", gin.H{"title": "x", "content": "y"}).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/notifications", "not-a-token", nil).Code)

	w := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ghost@example.com", "password": "password1"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "x@example.com", "password": "password1", "role": "superuser"})
	s.Equal(http.StatusBadRequest, w.Code)

	_, token := s.signup("leaving", models.RoleReader)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/auth/me", token, nil).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/auth/account", token, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/auth/me", token, nil).Code)
}

func (s *APITestSuite) TestNewsletters() {
	_, journalist := s.signup("columnist", models.RoleJournalist)
	_, reader := s.signup("subscriber", models.RoleReader)

	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/newsletters", reader, gin.H{"title": "t", "content": "c"}).Code)
	s.Equal(http.StatusCreated, s.do(http.MethodPost, "/api/newsletters", journalist, gin.H{"title": "Weekly", "content": "Notes"}).Code)

	w := s.do(http.MethodGet, "/api/newsletters", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decode[[]models.Newsletter](s, w), 1)
}

func (s *APITestSuite) TestRedispatchEndpoint() {
	_, editor := s.signup("editor", models.RoleEditor)
	journalistID, journalist := s.signup("journo", models.RoleJournalist)
	_, reader := s.signup("reader", models.RoleReader)

	w := s.do(http.MethodPost, "/api/subscriptions", reader, gin.H{"type": "journalist", "id": journalistID, "action": "subscribe"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/articles", journalist, gin.H{"title": "Flood warning", "content": "Rivers rising."})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	article := decode[models.Article](s, w)

	s.mailer.down["reader@example.com"] = true
	w = s.do(http.MethodPost, fmt.Sprintf("/api/articles/%d/approve", article.ID), editor, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Empty(s.mailer.to)

	delete(s.mailer.down, "reader@example.com")
	path := fmt.Sprintf("/api/articles/%d/redispatch", article.ID)

	w = s.do(http.MethodPost, path, "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	w = s.do(http.MethodPost, path, reader, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, path, editor, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	report := decode[services.DispatchReport](s, w)
	s.Equal(1, report.Sent)

	w = s.do(http.MethodPost, path, editor, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	report = decode[services.DispatchReport](s, w)
	s.Equal(0, report.Sent)
	s.Equal(1, report.Skipped)

	s.Equal([]string{"reader@example.com"}, s.mailer.to)
}
