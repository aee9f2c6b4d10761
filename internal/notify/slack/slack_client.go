package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thomas-vilte/materelease/internal/config"
	"github.com/thomas-vilte/materelease/internal/errors"
	"github.com/thomas-vilte/materelease/internal/httpclient"
	"github.com/thomas-vilte/materelease/internal/logger"
)

const DefaultBaseURL = "https://slack.com/api"

type SlackClient struct {
	baseURL string
	token   string
	channel string
	client  httpclient.HTTPClient
}

func NewSlackClient(cfg config.SlackConfig, client httpclient.HTTPClient) *SlackClient {
	return NewSlackClientWithURL(DefaultBaseURL, cfg, client)
}

func NewSlackClientWithURL(baseURL string, cfg config.SlackConfig, client httpclient.HTTPClient) *SlackClient {
	return &SlackClient{
		baseURL: baseURL,
		token:   cfg.Token,
		channel: cfg.Channel,
		client:  client,
	}
}

type (
	postMessageRequest struct {
		Channel string `json:"channel"`
		Text    string `json:"text"`
	}

	postMessageResponse struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
)

// SendMessage posts text to the configured channel. Slack answers 200 even
// when it rejects a message, so the api outcome comes back as ok and errMsg
// while err only reports transport failures.
func (c *SlackClient) SendMessage(ctx context.Context, text string) (bool, string, error) {
	payload, err := json.Marshal(postMessageRequest{Channel: c.channel, Text: text})
	if err != nil {
		return false, "", errors.ErrSendMessage.WithError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat.postMessage", bytes.NewReader(payload))
	if err != nil {
		return false, "", errors.ErrSendMessage.WithError(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, "", errors.ErrSendMessage.WithError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn(ctx, "error closing response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return false, "", errors.ErrSendMessage.
			WithError(fmt.Errorf("unexpected slack response: %s", resp.Status)).
			WithContext("channel", c.channel)
	}

	var result postMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, "", errors.ErrSendMessage.WithError(err)
	}

	return result.OK, result.Error, nil
}
