package billingsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type billingClient struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   <-chan time.Time
}

func newBillingClient(apiKey string) (*billingClient, error) {
	baseURL := strings.TrimSpace(os.Getenv("BILLING_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.infakt.pl/api/v3"
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("BILLING_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-inFakt-ApiKey"
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("billing api key is empty")
	}
	rateLimitPerMin := int64(30)
	if v := strings.TrimSpace(os.Getenv("BILLING_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			rateLimitPerMin = n
		}
	}
	interval := time.Minute / time.Duration(rateLimitPerMin)

	return &billingClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   time.Tick(interval),
	}, nil
}

type billingListResponse struct {
	Data       []json.RawMessage `json:"data"`
	Entities   []json.RawMessage `json:"entities"`
	NextCursor string            `json:"next_cursor"`
	HasMore    *bool             `json:"has_more"`
}

func (c *billingClient) getList(ctx context.Context, path string, params url.Values) (billingListResponse, error) {
	<-c.limiter
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return billingListResponse{}, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return billingListResponse{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return billingListResponse{}, fmt.Errorf("billing api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed billingListResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return billingListResponse{}, err
	}
	return parsed, nil
}
