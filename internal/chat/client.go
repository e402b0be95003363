package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/caffind/caffind/internal/httpx"
)

// ErrMalformedResponse means the chat endpoint answered without a reply field.
var ErrMalformedResponse = errors.New("malformed chat response")

// Client posts user messages to the external chat endpoint.
type Client struct {
	name     string
	endpoint string
	httpc    *httpx.Client
}

func NewClient(httpc *httpx.Client, endpoint string) *Client {
	return &Client{
		name:     "chat",
		endpoint: endpoint,
		httpc:    httpc,
	}
}

func (c *Client) Name() string {
	return c.name
}

// Send posts one message on behalf of the user and returns the reply text.
func (c *Client) Send(ctx context.Context, userEmail, text string) (string, error) {
	if c.endpoint == "" {
		return "", errors.New("chat endpoint is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"user":    userEmail,
		"message": text,
	})
	if err != nil {
		return "", err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := c.httpc.Do(ctx, buildRequest)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var decoded struct {
		Reply *string `json:"reply"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.Reply == nil {
		return "", fmt.Errorf("%w: missing reply", ErrMalformedResponse)
	}

	return *decoded.Reply, nil
}
