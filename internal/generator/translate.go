package generator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const translateTimeout = 15 * time.Second

// GoogleTranslator calls the public gtx endpoint with automatic source detection.
type GoogleTranslator struct {
	endpoint string
	client   *http.Client
}

func NewGoogleTranslator(endpoint string) *GoogleTranslator {
	return &GoogleTranslator{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: translateTimeout,
		},
	}
}

func (t *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", "auto")
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("target", target).
			Msg("translate request rejected")
		return "", fmt.Errorf("translate failed with status %d", resp.StatusCode)
	}

	return parseTranslation(body)
}

// parseTranslation joins the translated segments of a gtx reply:
// [[["Hello ","Привет ",...],["world","мир",...]],null,"ru",...]
func parseTranslation(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("translate response is not valid json")
	}
	segments := gjson.GetBytes(body, "0.#.0")
	if !segments.Exists() || !segments.IsArray() {
		return "", fmt.Errorf("translate response has no segments")
	}

	var sb strings.Builder
	for _, seg := range segments.Array() {
		sb.WriteString(seg.String())
	}
	return sb.String(), nil
}
