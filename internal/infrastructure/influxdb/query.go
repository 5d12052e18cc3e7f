package influxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseSize caps /query response bodies (last-value queries are tiny).
const maxResponseSize = 1 << 20 // 1 MB

// queryResponse is the subset of the InfluxQL JSON response we consume.
type queryResponse struct {
	Results []struct {
		Error  string `json:"error"`
		Series []struct {
			Name    string          `json:"name"`
			Columns []string        `json:"columns"`
			Values  [][]interface{} `json:"values"`
		} `json:"series"`
	} `json:"results"`
	Error string `json:"error"`
}

// LastValue returns the most recent stored value for a meter.
//
// Used to prefill the form with the last known reading (the caller
// subtracts the meter offset to display the raw counter value). Absence
// of any point for the meter is reported as ErrNoData, which callers
// treat as "field starts empty", not as a failure.
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//   - room: Room tag value
//   - meterID: Meter tag value
//
// Returns:
//   - float64: Last stored value (offset included)
//   - time.Time: Timestamp of that point
//   - error: ErrNoData if the series is empty, ErrQueryFailed otherwise
func (c *Client) LastValue(ctx context.Context, room, meterID string) (float64, time.Time, error) {
	if !c.IsConnected() {
		return 0, time.Time{}, ErrNotConnected
	}

	query := fmt.Sprintf(
		`SELECT last("value") FROM %q WHERE "room" = '%s' AND "meter" = '%s'`,
		c.cfg.Measurement,
		escapeTagValue(room),
		escapeTagValue(meterID),
	)

	body, err := c.doQuery(ctx, query)
	if err != nil {
		return 0, time.Time{}, err
	}

	return parseLastValue(body)
}

// doQuery executes an InfluxQL query against the /query endpoint.
func (c *Client) doQuery(ctx context.Context, query string) ([]byte, error) {
	params := url.Values{}
	params.Set("db", c.cfg.Database)
	params.Set("q", query)
	if c.cfg.Username != "" {
		params.Set("u", c.cfg.Username)
		params.Set("p", c.cfg.Password)
	}

	endpoint := c.baseURL + "/query?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %w", ErrQueryFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrQueryFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrQueryFailed, resp.StatusCode)
	}

	return body, nil
}

// parseLastValue extracts the single last(value) result from an InfluxQL
// response body.
func parseLastValue(body []byte) (float64, time.Time, error) {
	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: decoding response: %w", ErrQueryFailed, err)
	}

	if qr.Error != "" {
		return 0, time.Time{}, fmt.Errorf("%w: %s", ErrQueryFailed, qr.Error)
	}
	if len(qr.Results) == 0 {
		return 0, time.Time{}, ErrNoData
	}
	result := qr.Results[0]
	if result.Error != "" {
		return 0, time.Time{}, fmt.Errorf("%w: %s", ErrQueryFailed, result.Error)
	}
	if len(result.Series) == 0 || len(result.Series[0].Values) == 0 {
		return 0, time.Time{}, ErrNoData
	}

	row := result.Series[0].Values[0]
	if len(row) < 2 {
		return 0, time.Time{}, fmt.Errorf("%w: malformed series row", ErrQueryFailed)
	}

	ts, ok := row[0].(string)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: malformed timestamp", ErrQueryFailed)
	}
	when, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: parsing timestamp %q: %w", ErrQueryFailed, ts, err)
	}

	value, ok := row[1].(float64)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: malformed value", ErrQueryFailed)
	}

	return value, when, nil
}

// escapeTagValue escapes single quotes in InfluxQL string literals.
// Tag values come from configuration, not user input, but rooms with
// apostrophes in their names should still query correctly.
func escapeTagValue(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
