package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"newsroom/internal/config"
	"time"

	"github.com/dghubble/oauth1"
)

const (
	twitterAPIBase    = "https://api.twitter.com"
	twitterUploadBase = "https://upload.twitter.com"
)

type mediaUploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// TwitterPoster 使用 OAuth 1.0a 用户令牌发推，图片先走 v1.1 上传接口
type TwitterPoster struct {
	config     *oauth1.Config
	token      *oauth1.Token
	apiBase    string
	uploadBase string
	timeout    time.Duration
}

func NewTwitterPoster(creds *config.SocialCredentials, timeout time.Duration) *TwitterPoster {
	if timeout <= 0 {
		timeout = defaultSocialTimeout
	}
	return &TwitterPoster{
		config:     oauth1.NewConfig(creds.APIKey, creds.APISecret),
		token:      oauth1.NewToken(creds.AccessToken, creds.AccessSecret),
		apiBase:    twitterAPIBase,
		uploadBase: twitterUploadBase,
		timeout:    timeout,
	}
}

// WithBaseURLs 替换 API 地址（测试或代理）
func (p *TwitterPoster) WithBaseURLs(apiBase, uploadBase string) *TwitterPoster {
	p.apiBase = apiBase
	p.uploadBase = uploadBase
	return p
}

func (p *TwitterPoster) client(ctx context.Context) *http.Client {
	client := p.config.Client(ctx, p.token)
	client.Timeout = p.timeout
	return client
}

// Post 图片上传失败时退化为纯文字
func (p *TwitterPoster) Post(ctx context.Context, text string, media []byte) error {
	client := p.client(ctx)

	body := tweetRequest{Text: text}
	if len(media) > 0 {
		mediaID, err := p.uploadMedia(ctx, client, media)
		if err != nil {
			slog.Warn("media upload failed, posting text only", "error", err)
		} else {
			body.Media = &tweetMedia{MediaIDs: []string{mediaID}}
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error encoding tweet: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeout(err) {
			return fmt.Errorf("%w: tweet request: %w", ErrDeliveryUnconfirmed, err)
		}
		return fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		if (ctx.Err() != nil || isTimeout(err)) && resp.StatusCode < http.StatusBadRequest {
			return fmt.Errorf("%w: reading tweet response: %w", ErrDeliveryUnconfirmed, err)
		}
		return fmt.Errorf("error reading tweet response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tweet rejected: status %d: %s", resp.StatusCode, string(respBody))
	}

	var tweet tweetResponse
	if err := json.Unmarshal(respBody, &tweet); err != nil {
		return fmt.Errorf("error decoding tweet response: %w", err)
	}
	slog.Info("social post published", "tweet_id", tweet.Data.ID, "with_media", body.Media != nil)
	return nil
}

func (p *TwitterPoster) uploadMedia(ctx context.Context, client *http.Client, media []byte) (string, error) {
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)
	part, err := writer.CreateFormFile("media", "image")
	if err != nil {
		return "", fmt.Errorf("error building upload body: %w", err)
	}
	if _, err := part.Write(media); err != nil {
		return "", fmt.Errorf("error building upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("error building upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.uploadBase+"/1.1/media/upload.json", &requestBody)
	if err != nil {
		return "", fmt.Errorf("error creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("media upload rejected: status %d", resp.StatusCode)
	}

	var uploaded mediaUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("error decoding upload response: %w", err)
	}
	if uploaded.MediaIDString == "" {
		return "", fmt.Errorf("media upload returned no media id")
	}
	return uploaded.MediaIDString, nil
}

// isTimeout 请求已发出后超时，推文可能已经发布
func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
