package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/Babel/internal/domain"
)

var (
	ErrTimeout = errors.New("translation timed out")
	ErrService = errors.New("translation service error")
)

// Libre talks to a LibreTranslate compatible endpoint.
type Libre struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error,omitempty"`
}

// NewLibre creates a client for baseURL (for example http://localhost:5000).
// The per-call deadline comes from ctx; timeout only caps idle connections.
func NewLibre(baseURL, apiKey string, timeout time.Duration) *Libre {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Libre{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Libre) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	body, err := json.Marshal(libreRequest{
		Q:      text,
		Source: domain.OriginAuto,
		Target: string(target),
		Format: "text",
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrService, err)
	}
	defer resp.Body.Close()

	var out libreResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d %s", ErrService, resp.StatusCode, out.Error)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrService, decodeErr)
	}
	if out.TranslatedText == "" {
		return "", fmt.Errorf("%w: empty translation", ErrService)
	}
	return out.TranslatedText, nil
}
