package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/caffind/caffind/internal/httpx"
)

var (
	// ErrEmptyText means there was nothing to translate; no request is made.
	ErrEmptyText = errors.New("nothing to translate")
	// ErrMalformedResponse means the endpoint answered without the expected field.
	ErrMalformedResponse = errors.New("malformed translation response")
)

// Result is a successful translation.
type Result struct {
	TranslatedText string `json:"translatedText"`
	DetectedSource string `json:"detectedSource,omitempty"`
	Target         string `json:"target"`
}

// Client posts free text to the external translation endpoint.
type Client struct {
	name          string
	endpoint      string
	defaultTarget string
	httpc         *httpx.Client
}

func NewClient(httpc *httpx.Client, endpoint, defaultTarget string) *Client {
	if defaultTarget == "" {
		defaultTarget = "en"
	}
	return &Client{
		name:          "translator",
		endpoint:      endpoint,
		defaultTarget: defaultTarget,
		httpc:         httpc,
	}
}

func (c *Client) Name() string {
	return c.name
}

// Translate sends text to the endpoint and returns the translated result.
// Empty or whitespace-only text short-circuits before any network I/O.
func (c *Client) Translate(ctx context.Context, text, target, source string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrEmptyText
	}
	if c.endpoint == "" {
		return Result{}, errors.New("translation endpoint is not configured")
	}
	if target == "" {
		target = c.defaultTarget
	}

	body := map[string]string{
		"text":   text,
		"target": target,
	}
	if source != "" {
		body["source"] = source
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Result{}, err
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
		return Result{}, err
	}
	defer resp.Body.Close()

	var decoded struct {
		TranslatedText *string `json:"translated_text"`
		DetectedSource string  `json:"detected_source"`
		Target         string  `json:"target"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if decoded.TranslatedText == nil {
		return Result{}, fmt.Errorf("%w: missing translated_text", ErrMalformedResponse)
	}

	out := Result{
		TranslatedText: *decoded.TranslatedText,
		DetectedSource: decoded.DetectedSource,
		Target:         decoded.Target,
	}
	if out.Target == "" {
		out.Target = target
	}
	return out, nil
}
