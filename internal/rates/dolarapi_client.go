package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gitlab.com/yelinaung/ledger-engine/internal/models"
)

var errUnknownSource = errors.New("unknown rate source")

// DolarAPIClient fetches VES/USD quotes from ve.dolarapi.com. The
// "paralelo" source maps to the parallel-market endpoint and "bcv" to the
// official central-bank one.
type DolarAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

type dolarAPIResponse struct {
	Fuente    string      `json:"fuente"`
	Nombre    string      `json:"nombre"`
	Promedio  json.Number `json:"promedio"`
	UpdatedAt string      `json:"fechaActualizacion"`
}

// NewDolarAPIClient creates a DolarAPI client.
func NewDolarAPIClient(baseURL string, timeout time.Duration) *DolarAPIClient {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://ve.dolarapi.com"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &DolarAPIClient{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchRate fetches the latest published rate for the named source.
func (c *DolarAPIClient) FetchRate(ctx context.Context, source string) (Quote, error) {
	var path string
	switch source {
	case models.RateSourceParalelo:
		path = "/v1/dolares/paralelo"
	case models.RateSourceBCV:
		path = "/v1/dolares/oficial"
	default:
		return Quote{}, fmt.Errorf("%w: %q", errUnknownSource, source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to create rate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to request rate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("rate API returned status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var payload dolarAPIResponse
	if err := decoder.Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	rate, err := payload.Promedio.Float64()
	if err != nil {
		return Quote{}, fmt.Errorf("failed to parse rate: %w", err)
	}
	if rate <= 0 {
		return Quote{}, errors.New("rate must be positive")
	}

	fetchedAt := time.Now().UTC()
	if payload.UpdatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, payload.UpdatedAt); err == nil {
			fetchedAt = ts
		}
	}

	return Quote{Rate: rate, FetchedAt: fetchedAt}, nil
}
