package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/watermon-core/internal/infrastructure/config"
	"github.com/nerrad567/watermon-core/internal/meter"
)

// fakeInflux is a minimal InfluxDB 1.8 stand-in covering the endpoints the
// client touches: /ping, /query (InfluxQL), and /api/v2/write (1.8 forward
// compatibility endpoint used by influxdb-client-go).
type fakeInflux struct {
	mu          sync.Mutex
	writeBodies []string
	queries     []url.Values
	queryBody   string
	writeStatus int
}

func newFakeInflux() *fakeInflux {
	return &fakeInflux{
		queryBody:   `{"results":[{"statement_id":0}]}`,
		writeStatus: http.StatusNoContent,
	}
}

func (f *fakeInflux) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/query", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.queries = append(f.queries, r.Form)
		body := f.queryBody
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writeBodies = append(f.writeBodies, string(body))
		status := f.writeStatus
		f.mu.Unlock()
		w.WriteHeader(status)
	})
	return mux
}

func (f *fakeInflux) lastWrite(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.writeBodies) == 0 {
		t.Fatal("no write received")
	}
	return f.writeBodies[len(f.writeBodies)-1]
}

func testClient(t *testing.T, f *fakeInflux) *Client {
	t.Helper()
	ts := httptest.NewServer(f.handler())
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("parsing test server port: %v", err)
	}

	cfg := config.InfluxConfig{
		Host:        u.Hostname(),
		Port:        port,
		Username:    "root",
		Password:    "root",
		Database:    "water-monitoring",
		Measurement: "water_meters",
	}

	client, err := Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestConnect(t *testing.T) {
	f := newFakeInflux()
	client := testClient(t, f)

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}

	// Bootstrap should have issued CREATE DATABASE.
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		t.Fatal("no /query request during Connect()")
	}
	if q := f.queries[0].Get("q"); !strings.Contains(q, "CREATE DATABASE") {
		t.Errorf("bootstrap query = %q, want CREATE DATABASE", q)
	}
}

func TestConnect_ServerDown(t *testing.T) {
	cfg := config.InfluxConfig{
		Host:        "127.0.0.1",
		Port:        59999, // nothing listens here
		Database:    "water-monitoring",
		Measurement: "water_meters",
	}

	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteReading(t *testing.T) {
	f := newFakeInflux()
	client := testClient(t, f)

	ts := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)
	err := client.WriteReading(context.Background(), meter.Reading{
		MeterID:     "kitchen-cold",
		Room:        "kitchen",
		Timestamp:   ts,
		RawValue:    42,
		StoredValue: 142.5,
	})
	if err != nil {
		t.Fatalf("WriteReading() error = %v", err)
	}

	line := f.lastWrite(t)
	for _, want := range []string{"water_meters", "meter=kitchen-cold", "room=kitchen", "value=142.5"} {
		if !strings.Contains(line, want) {
			t.Errorf("write body %q missing %q", line, want)
		}
	}
	if !strings.Contains(line, strconv.FormatInt(ts.UnixNano(), 10)) {
		t.Errorf("write body %q missing timestamp %d", line, ts.UnixNano())
	}
}

func TestWriteReading_ServerError(t *testing.T) {
	f := newFakeInflux()
	client := testClient(t, f)
	f.mu.Lock()
	f.writeStatus = http.StatusInternalServerError
	f.mu.Unlock()

	err := client.WriteReading(context.Background(), meter.Reading{
		MeterID: "kitchen-cold", Room: "kitchen",
		Timestamp: time.Now(), StoredValue: 1,
	})
	if !errors.Is(err, ErrWriteFailed) {
		t.Errorf("WriteReading() error = %v, want ErrWriteFailed", err)
	}
}

func TestWriteReading_NotConnected(t *testing.T) {
	f := newFakeInflux()
	client := testClient(t, f)
	client.Close()

	err := client.WriteReading(context.Background(), meter.Reading{MeterID: "m", Room: "r"})
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("WriteReading() error = %v, want ErrNotConnected", err)
	}
}

func TestLastValue(t *testing.T) {
	f := newFakeInflux()
	client := testClient(t, f)

	f.mu.Lock()
	f.queryBody = `{"results":[{"statement_id":0,"series":[{"name":"water_meters","columns":["time","last"],"values":[["2026-08-27T10:30:00Z",142.5]]}]}]}`
	f.mu.Unlock()

	value, when, err := client.LastValue(context.Background(), "kitchen", "kitchen-cold")
	if err != nil {
		t.Fatalf("LastValue() error = %v", err)
	}
	if value != 142.5 {
		t.Errorf("LastValue() = %v, want 142.5", value)
	}
	want := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)
	if !when.Equal(want) {
		t.Errorf("LastValue() time = %v, want %v", when, want)
	}

	f.mu.Lock()
	last := f.queries[len(f.queries)-1]
	f.mu.Unlock()
	if db := last.Get("db"); db != "water-monitoring" {
		t.Errorf("query db = %q, want water-monitoring", db)
	}
	q := last.Get("q")
	for _, want := range []string{`last("value")`, `"water_meters"`, `'kitchen'`, `'kitchen-cold'`} {
		if !strings.Contains(q, want) {
			t.Errorf("query %q missing %q", q, want)
		}
	}
}

func TestLastValue_NoData(t *testing.T) {
	f := newFakeInflux()
	client := testClient(t, f)

	f.mu.Lock()
	f.queryBody = `{"results":[{"statement_id":0}]}`
	f.mu.Unlock()

	_, _, err := client.LastValue(context.Background(), "kitchen", "kitchen-cold")
	if !errors.Is(err, ErrNoData) {
		t.Errorf("LastValue() error = %v, want ErrNoData", err)
	}
}

func TestParseLastValue(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"top level error", `{"error":"authorization failed"}`, ErrQueryFailed},
		{"result error", `{"results":[{"error":"database not found"}]}`, ErrQueryFailed},
		{"empty results", `{"results":[]}`, ErrNoData},
		{"no series", `{"results":[{"statement_id":0}]}`, ErrNoData},
		{"empty values", `{"results":[{"series":[{"columns":["time","last"],"values":[]}]}]}`, ErrNoData},
		{"short row", `{"results":[{"series":[{"values":[["2026-08-27T10:30:00Z"]]}]}]}`, ErrQueryFailed},
		{"bad timestamp", `{"results":[{"series":[{"values":[["yesterday",1.5]]}]}]}`, ErrQueryFailed},
		{"bad value", `{"results":[{"series":[{"values":[["2026-08-27T10:30:00Z","high"]]}]}]}`, ErrQueryFailed},
		{"not json", `<html>`, ErrQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseLastValue([]byte(tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("parseLastValue() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEscapeTagValue(t *testing.T) {
	if got := escapeTagValue("bob's room"); got != `bob\'s room` {
		t.Errorf("escapeTagValue() = %q", got)
	}
	if got := escapeTagValue("kitchen"); got != "kitchen" {
		t.Errorf("escapeTagValue() = %q, want unchanged", got)
	}
}

func TestHealthCheck_Closed(t *testing.T) {
	f := newFakeInflux()
	client := testClient(t, f)
	client.Close()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}
