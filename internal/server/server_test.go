package server

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/budgetrecon/internal/blob"
	"github.com/theirongolddev/budgetrecon/internal/classify"
	"github.com/theirongolddev/budgetrecon/internal/dashboard"
	"github.com/theirongolddev/budgetrecon/internal/fx"
	"github.com/theirongolddev/budgetrecon/internal/model"
	"github.com/theirongolddev/budgetrecon/internal/pipeline"
	"github.com/theirongolddev/budgetrecon/internal/source"
	"github.com/theirongolddev/budgetrecon/internal/store"
)

func csvText(t *testing.T, rows [][]string) string {
	t.Helper()
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.WriteAll(rows); err != nil {
		t.Fatal(err)
	}
	return b.String()
}

func newTestServer(t *testing.T) (*httptest.Server, *dashboard.Service) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "recon.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	blobs, err := blob.NewLocalStore(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatal(err)
	}

	ledger := csvText(t, [][]string{
		source.LedgerColumns,
		{"Musson", "Acme", "OPEX", "IT***Laptops", "450", "2026-02-01", "Approved", "", "", "", "USD", "2026"},
	})
	if err := blobs.Put(context.Background(), "ledger.csv", strings.NewReader(ledger)); err != nil {
		t.Fatal(err)
	}

	now := func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	dash := &dashboard.Service{
		Files: db,
		Blob:  blobs,
		Loader: &pipeline.Loader{
			Ledger: source.BlobLedger{Store: blobs, Key: "ledger.csv"},
			Rates:  fx.Static(fx.NewRateTable(nil)),
			Cache:  db,
			Now:    now,
			Log:    zerolog.Nop(),
		},
		Classify: &classify.Manager{Store: db, Now: now},
		Org:      "Musson",
		Log:      zerolog.Nop(),
		Now:      now,
	}

	ts := httptest.NewServer(New(Config{}, dash, zerolog.Nop()).Handler())
	t.Cleanup(ts.Close)
	return ts, dash
}

func activate(t *testing.T, dash *dashboard.Service) {
	t.Helper()
	row := []string{"IT", "Laptops"}
	for range model.Months {
		row = append(row, "50")
	}
	row = append(row, "600")
	body := csvText(t, [][]string{pipeline.WideHeader(), row})

	ctx := context.Background()
	f, err := dash.Upload(ctx, "alice", "budget.csv", model.BudgetOpex, 2026, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := dash.Activate(ctx, f.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
}

func do(t *testing.T, method, url, user, ifMatch, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	if ifMatch != "" {
		req.Header.Set("If-Match", ifMatch)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := do(t, http.MethodGet, ts.URL+"/healthz", "", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestNoActiveBudgetIs404(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{"/v1/report", "/v1/summary", "/v1/transactions", "/v1/budget", "/v1/classifications"} {
		resp := do(t, http.MethodGet, ts.URL+path, "alice", "", "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestReportAndTransactions(t *testing.T) {
	ts, dash := newTestServer(t)
	activate(t, dash)

	resp := do(t, http.MethodGet, ts.URL+"/v1/report", "", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report status = %d", resp.StatusCode)
	}
	var rep dashboard.Report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if !rep.Spent.Equal(decimal.NewFromInt(450)) || !rep.Variance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("report totals = %s/%s", rep.Spent, rep.Variance)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/transactions?category=it&subcategory=laptops", "", "", "")
	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 {
		t.Errorf("transactions count = %d", out.Count)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/transactions?category=marketing", "", "", "")
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 0 {
		t.Errorf("filtered transactions count = %d", out.Count)
	}
}

func TestClassificationsRoundTrip(t *testing.T) {
	ts, dash := newTestServer(t)
	activate(t, dash)

	resp := do(t, http.MethodGet, ts.URL+"/v1/classifications", "alice", "", "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("ETag") != `"0"` {
		t.Fatalf("get = %d etag %s", resp.StatusCode, resp.Header.Get("ETag"))
	}

	body := `{"entries":[
		{"category":"IT","subcategory":"Laptops","allocation_id":"a1","amount":"600","allocated_amount":"400","status":"To be spent"},
		{"category":"IT","subcategory":"Laptops","allocation_id":"a2","amount":"600","allocated_amount":"200","status":"Wishlist"}]}`

	resp = do(t, http.MethodPut, ts.URL+"/v1/classifications", "", "", body)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous put = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodPut, ts.URL+"/v1/classifications", "alice", `"0"`, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put = %d", resp.StatusCode)
	}
	if resp.Header.Get("ETag") != `"1"` {
		t.Errorf("put etag = %s", resp.Header.Get("ETag"))
	}

	resp = do(t, http.MethodPut, ts.URL+"/v1/classifications", "bob", `"0"`, body)
	if resp.StatusCode != http.StatusPreconditionFailed {
		t.Errorf("stale put = %d, want 412", resp.StatusCode)
	}

	over := strings.Replace(body, `"allocated_amount":"200"`, `"allocated_amount":"250"`, 1)
	resp = do(t, http.MethodPut, ts.URL+"/v1/classifications", "bob", "", over)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("over-allocated put = %d, want 422", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/summary", "alice", "", "")
	var sum model.Summary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		t.Fatal(err)
	}
	if got := sum.Tile(model.StatusWishlist); !got.Equal(decimal.NewFromInt(200)) {
		t.Errorf("wishlist tile = %s", got)
	}
	if got := sum.Tile(model.StatusSpent); !got.Equal(decimal.NewFromInt(450)) {
		t.Errorf("spent tile = %s", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrNoActiveBudget, http.StatusNotFound},
		{fmt.Errorf("x: %w", model.ErrFileNotFound), http.StatusNotFound},
		{model.ErrNotUploader, http.StatusForbidden},
		{model.Invalid(model.ErrVersionConflict, ""), http.StatusPreconditionFailed},
		{model.Invalid(model.ErrExceedsRemaining, ""), http.StatusUnprocessableEntity},
		{&model.SchemaError{Reason: "missing"}, http.StatusUnprocessableEntity},
		{model.Boundary("fx", errors.New("down")), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseIfMatch(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", -1, false},
		{"*", -1, false},
		{`"3"`, 3, false},
		{"7", 7, false},
		{`"abc"`, 0, true},
		{"-2", 0, true},
	}
	for _, tt := range tests {
		got, err := parseIfMatch(tt.in)
		if (err != nil) != tt.wantErr || (!tt.wantErr && got != tt.want) {
			t.Errorf("parseIfMatch(%q) = %d, %v", tt.in, got, err)
		}
	}
}
