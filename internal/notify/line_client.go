package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// LineClient pushes messages through the LINE Messaging API.
type LineClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewLineClient builds a client. A nil httpClient gets a 15s timeout client.
func NewLineClient(baseURL, token string, httpClient *http.Client) *LineClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &LineClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// SendText implements Notifier.
func (c *LineClient) SendText(ctx context.Context, channel, text string) error {
	return c.push(ctx, channel, &messaging_api.TextMessage{Text: text})
}

// SendStructuredMessage implements Notifier with a flex message; summary
// becomes the alt text shown in chat previews. payload must encode to a flex
// container.
func (c *LineClient) SendStructuredMessage(ctx context.Context, channel, summary string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return &PermanentError{Err: fmt.Errorf("encode flex payload: %w", err)}
	}
	contents, err := messaging_api.UnmarshalFlexContainer(raw)
	if err != nil {
		return &PermanentError{Err: fmt.Errorf("decode flex payload: %w", err)}
	}
	return c.push(ctx, channel, &messaging_api.FlexMessage{AltText: summary, Contents: contents})
}

// api builds a client bound to ctx. The SDK keeps the context on the client,
// so sharing one across workers would race.
func (c *LineClient) api(ctx context.Context) (*messaging_api.MessagingApiAPI, error) {
	options := []messaging_api.MessagingApiAPIOption{messaging_api.WithHTTPClient(c.httpClient)}
	if c.baseURL != "" {
		options = append(options, messaging_api.WithEndpoint(c.baseURL))
	}
	api, err := messaging_api.NewMessagingApiAPI(c.token, options...)
	if err != nil {
		return nil, err
	}
	return api.WithContext(ctx), nil
}

func (c *LineClient) push(ctx context.Context, channel string, message messaging_api.MessageInterface) error {
	if channel == "" {
		return &PermanentError{Err: errors.New("empty channel")}
	}
	api, err := c.api(ctx)
	if err != nil {
		return &PermanentError{Err: fmt.Errorf("line client: %w", err)}
	}

	resp, _, err := api.PushMessageWithHttpInfo(&messaging_api.PushMessageRequest{
		To:       channel,
		Messages: []messaging_api.MessageInterface{message},
	}, "")
	if err == nil {
		return nil
	}
	if resp == nil {
		return &TransientError{Err: err}
	}
	cause := fmt.Errorf("line push: %w", err)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &TransientError{StatusCode: resp.StatusCode, Err: cause}
	}
	return &PermanentError{StatusCode: resp.StatusCode, Err: cause}
}
