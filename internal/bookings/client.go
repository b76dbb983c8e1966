package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"disputeflow/internal"
	"disputeflow/internal/config"
)

// Client pages booking records out of the back-office API. The API is
// scroll-based: each page returns a scrollId to request the next one.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
	Data    json.RawMessage `json:"data"`
}

type scrollPayload struct {
	Bookings []map[string]any `json:"bookings"`
	ScrollID *string          `json:"scrollId"`
	Total    *int             `json:"total"`
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.BookingTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.BookingRateLimitRPS),
	}
}

func (c *Client) GetBookingsScrollAll(ctx context.Context) ([]internal.BookingRecord, error) {
	return c.getBookingsScroll(ctx, map[string]string{})
}

// GetBookingsModifiedSince fetches bookings touched within the configured
// lookback window.
func (c *Client) GetBookingsModifiedSince(ctx context.Context) ([]internal.BookingRecord, error) {
	return c.getBookingsScroll(ctx, map[string]string{
		"modified_days": strconv.Itoa(c.cfg.BookingIncrementalDays),
	})
}

func (c *Client) getBookingsScroll(ctx context.Context, params map[string]string) ([]internal.BookingRecord, error) {
	all := make([]internal.BookingRecord, 0)
	seen := map[string]struct{}{}
	var scrollID string

	for {
		query := map[string]string{}
		for k, v := range params {
			query[k] = v
		}
		if scrollID != "" {
			query["scrollId"] = scrollID
		}

		body, err := c.fetchJSON(ctx, "booking/scroll", query)
		if err != nil {
			return nil, err
		}

		var payload scrollPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}

		for _, raw := range payload.Bookings {
			record, err := toBookingRecord(raw)
			if err != nil {
				continue
			}
			all = append(all, record)
		}

		if payload.ScrollID == nil || *payload.ScrollID == "" || len(payload.Bookings) == 0 {
			break
		}
		if _, ok := seen[*payload.ScrollID]; ok {
			break
		}
		seen[*payload.ScrollID] = struct{}{}
		scrollID = *payload.ScrollID
	}

	return all, nil
}

func (c *Client) fetchJSON(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if strings.TrimSpace(c.cfg.BookingAPIToken) == "" {
		return nil, errors.New("missing BOOKING_API_TOKEN")
	}

	baseURL := strings.TrimRight(c.cfg.BookingAPIBaseURL, "/") + "/"
	u, err := url.Parse(baseURL + endpoint)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	for k, v := range params {
		if strings.TrimSpace(v) != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		c.limiter.WaitTurn()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.BookingAPIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < 5 {
				backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
				time.Sleep(backoff)
				lastErr = fmt.Errorf("back-office status %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("back-office api error: status=%d body=%s", resp.StatusCode, string(body))
		}

		var apiResp apiResponse
		if err := json.Unmarshal(body, &apiResp); err != nil {
			return nil, err
		}
		if !apiResp.Success {
			return nil, fmt.Errorf("back-office api unsuccessful: %s", string(apiResp.Errors))
		}
		return apiResp.Data, nil
	}

	if lastErr == nil {
		lastErr = errors.New("back-office request failed")
	}
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func toBookingRecord(raw map[string]any) (internal.BookingRecord, error) {
	reference := toString(raw["inetRef"])
	if reference == "" {
		return internal.BookingRecord{}, errors.New("missing inetRef")
	}

	return internal.BookingRecord{
		Reference:    reference,
		FolderNumber: toString(raw["folderNumber"]),
		TravelDate:   toString(raw["travelDate"]),
		Origin:       toString(raw["origin"]),
		Destination:  toString(raw["destination"]),
		AirlineCode:  toString(raw["airlineCode"]),
		InvoiceDate:  toString(raw["invoiceDate"]),
		ReturnDate:   toString(raw["returnDate"]),
		ContactEmail: toString(raw["contactEmail"]),
	}, nil
}

func toString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
