package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"saturn/internal/domain"
	"saturn/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// shortParams keeps the warm-up down to four bars.
var shortParams = StrategyParams{
	FastMA: 2, SlowMA: 3, RSIPeriod: 2,
	BollWindow: 2, BollDev: 2, EMAWindow: 2,
	MACDFast: 2, MACDSlow: 3, MACDSignal: 2,
	StochK: 2, StochD: 2,
}

// newTestServer backs a Server with real stores under a temp dir, seeded
// with n consecutive daily bars for AAPL starting 2024-03-01.
func newTestServer(t *testing.T, n int) (*Server, *gin.Engine) {
	t.Helper()

	ps := store.NewParquetStore(t.TempDir())
	sq, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	bars := make([]domain.Bar, n)
	for i := range bars {
		price := 100 + float64(i)
		bars[i] = domain.Bar{
			Symbol: "AAPL",
			Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   price, High: price + 1, Low: price - 1, Close: price + 0.5,
			Volume: 1000,
		}
	}
	if err := ps.WriteBars(t.Context(), bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	srv := NewServer(ps, sq, sq, quietLogger())
	return srv, srv.Router()
}

func postBacktest(t *testing.T, router *gin.Engine, req BacktestRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/backtest", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, r)
	return w
}

func TestHealth(t *testing.T) {
	_, router := newTestServer(t, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", w.Code)
	}
}

func TestBacktestEndpoint(t *testing.T) {
	_, router := newTestServer(t, 15)

	w := postBacktest(t, router, BacktestRequest{
		Symbol:   "aapl",
		Strategy: "technical",
		Start:    "2024-03-01",
		End:      "2024-03-31",
		Params:   &shortParams,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /backtest = %d: %s", w.Code, w.Body.String())
	}

	var resp BacktestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want the uppercased AAPL", resp.Symbol)
	}
	if resp.Status != "complete" {
		t.Errorf("status = %q, want complete", resp.Status)
	}
	if resp.Bars != 15 {
		t.Errorf("bars = %d, want 15", resp.Bars)
	}
	if resp.RunID == 0 {
		t.Error("run was not persisted")
	}
	if resp.EquityCurve != nil {
		t.Error("equity curve returned without include_curve")
	}
}

func TestBacktestPersistsRun(t *testing.T) {
	_, router := newTestServer(t, 15)

	w := postBacktest(t, router, BacktestRequest{
		Symbol:   "AAPL",
		Strategy: "sentiment-basic",
		Start:    "2024-03-01",
		End:      "2024-03-31",
		Params:   &shortParams,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /backtest = %d: %s", w.Code, w.Body.String())
	}

	lw := httptest.NewRecorder()
	router.ServeHTTP(lw, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	if lw.Code != http.StatusOK {
		t.Fatalf("GET /runs = %d", lw.Code)
	}
	var runs RunsResponse
	if err := json.Unmarshal(lw.Body.Bytes(), &runs); err != nil {
		t.Fatalf("decoding runs: %v", err)
	}
	if len(runs.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs.Runs))
	}
	if runs.Runs[0].Strategy != "sentiment-basic" {
		t.Errorf("persisted strategy = %q", runs.Runs[0].Strategy)
	}
}

func TestBacktestIncludeCurve(t *testing.T) {
	_, router := newTestServer(t, 15)

	w := postBacktest(t, router, BacktestRequest{
		Symbol:       "AAPL",
		Strategy:     "technical",
		Start:        "2024-03-01",
		End:          "2024-03-31",
		IncludeCurve: true,
		Params:       &shortParams,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("POST /backtest = %d: %s", w.Code, w.Body.String())
	}
	var resp BacktestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.EquityCurve) != 15 {
		t.Errorf("equity curve length = %d, want 15", len(resp.EquityCurve))
	}
}

func TestBacktestBadRequests(t *testing.T) {
	_, router := newTestServer(t, 15)

	cases := []struct {
		name string
		req  BacktestRequest
	}{
		{"missing symbol", BacktestRequest{Strategy: "technical", Start: "2024-03-01", End: "2024-03-31"}},
		{"unknown strategy", BacktestRequest{Symbol: "AAPL", Strategy: "martingale", Start: "2024-03-01", End: "2024-03-31"}},
		{"bad start date", BacktestRequest{Symbol: "AAPL", Strategy: "technical", Start: "03/01/2024", End: "2024-03-31"}},
		{"inverted range", BacktestRequest{Symbol: "AAPL", Strategy: "technical", Start: "2024-03-31", End: "2024-03-01"}},
		{"too few bars", BacktestRequest{Symbol: "AAPL", Strategy: "technical", Start: "2024-03-01", End: "2024-03-02", Params: &shortParams}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := postBacktest(t, router, tc.req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestStrategiesEndpoint(t *testing.T) {
	_, router := newTestServer(t, 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/strategies", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /strategies = %d", w.Code)
	}
	var resp StrategiesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	want := []string{"sentiment-advanced", "sentiment-basic", "technical"}
	if len(resp.Strategies) != len(want) {
		t.Fatalf("strategies = %v, want %v", resp.Strategies, want)
	}
	for i, name := range want {
		if resp.Strategies[i] != name {
			t.Errorf("strategies[%d] = %q, want %q", i, resp.Strategies[i], name)
		}
	}
}

func TestSymbolsEndpoint(t *testing.T) {
	_, router := newTestServer(t, 5)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/symbols", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /symbols = %d", w.Code)
	}
	var resp SymbolsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Symbols) != 1 || resp.Symbols[0] != "AAPL" {
		t.Errorf("symbols = %v, want [AAPL]", resp.Symbols)
	}
}
