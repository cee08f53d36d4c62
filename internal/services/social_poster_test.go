package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"newsroom/internal/config"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type twitterStub struct {
	mu          sync.Mutex
	tweets      []tweetRequest
	uploads     int
	failUploads bool
	authHeaders []string
}

func (s *twitterStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		if s.failUploads {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if _, _, err := r.FormFile("media"); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.uploads++
		json.NewEncoder(w).Encode(mediaUploadResponse{MediaIDString: "m-1"})
	})
	mux.HandleFunc("/2/tweets", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		var body tweetRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.tweets = append(s.tweets, body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"42","text":"ok"}}`))
	})
	return mux
}

func newTestPoster(t *testing.T, stub *twitterStub) *TwitterPoster {
	server := httptest.NewServer(stub.handler())
	t.Cleanup(server.Close)
	creds := &config.SocialCredentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessSecret: "ts"}
	return NewTwitterPoster(creds, 5*time.Second).WithBaseURLs(server.URL, server.URL)
}

func TestTwitterPosterTextOnly(t *testing.T) {
	stub := &twitterStub{}
	poster := newTestPoster(t, stub)

	require.NoError(t, poster.Post(context.Background(), "hello", nil))
	require.Len(t, stub.tweets, 1)
	assert.Equal(t, "hello", stub.tweets[0].Text)
	assert.Nil(t, stub.tweets[0].Media)
	assert.Zero(t, stub.uploads)
	for _, h := range stub.authHeaders {
		assert.True(t, strings.HasPrefix(h, "OAuth "), h)
	}
}

func TestTwitterPosterWithMedia(t *testing.T) {
	stub := &twitterStub{}
	poster := newTestPoster(t, stub)

	require.NoError(t, poster.Post(context.Background(), "with image", []byte("png")))
	require.Len(t, stub.tweets, 1)
	require.NotNil(t, stub.tweets[0].Media)
	assert.Equal(t, []string{"m-1"}, stub.tweets[0].Media.MediaIDs)
}

func TestTwitterPosterUploadFailureFallsBackToText(t *testing.T) {
	stub := &twitterStub{failUploads: true}
	poster := newTestPoster(t, stub)

	require.NoError(t, poster.Post(context.Background(), "text anyway", []byte("png")))
	require.Len(t, stub.tweets, 1)
	assert.Nil(t, stub.tweets[0].Media)
}

func TestTwitterPosterRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"title":"Forbidden"}`))
	}))
	defer server.Close()

	creds := &config.SocialCredentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessSecret: "ts"}
	poster := NewTwitterPoster(creds, time.Second).WithBaseURLs(server.URL, server.URL)

	err := poster.Post(context.Background(), "nope", nil)
	assert.ErrorContains(t, err, "status 403")
}

func TestTwitterPosterTimeoutIsUnconfirmed(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	creds := &config.SocialCredentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessSecret: "ts"}
	poster := NewTwitterPoster(creds, 5*time.Second).WithBaseURLs(server.URL, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := poster.Post(ctx, "hello", nil)
	assert.ErrorIs(t, err, ErrDeliveryUnconfirmed)
}
