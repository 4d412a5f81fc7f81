package noiregistry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const registryTable = `<html><body>
<h2>Comparable Income and Expense Medians</h2>
<table>
  <tr><th>Building Type</th><th>Income ($/sqft)</th><th>Expense ($/sqft)</th></tr>
  <tr><td>Cooperative</td><td>$28.75</td><td>$14.20</td></tr>
  <tr><td>Condominium</td><td>$34.10</td><td>$16.85</td></tr>
</table>
</body></html>`

func newRegistryServer(t *testing.T, body string, requests *int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			atomic.AddInt64(requests, 1)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLookupCooperative(t *testing.T) {
	server := newRegistryServer(t, registryTable, nil)
	client := NewClient(server.URL)

	// (28.75 - 14.20) * 100000.
	noi, source, err := client.Lookup(context.Background(), "cooperative", 100000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if noi != 1455000 {
		t.Errorf("Expected NOI 1455000, got %v", noi)
	}
	if source != SourceRegistry {
		t.Errorf("Expected registry source, got %q", source)
	}
}

func TestLookupCondominiumCaseInsensitive(t *testing.T) {
	server := newRegistryServer(t, registryTable, nil)
	client := NewClient(server.URL)

	// (34.10 - 16.85) * 50000.
	noi, source, err := client.Lookup(context.Background(), "Condominium", 50000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if noi != 862500 {
		t.Errorf("Expected NOI 862500, got %v", noi)
	}
	if source != SourceRegistry {
		t.Errorf("Expected registry source, got %q", source)
	}
}

func TestLookupRentalSkipsRegistry(t *testing.T) {
	var requests int64
	server := newRegistryServer(t, registryTable, &requests)
	client := NewClient(server.URL)

	// (32.00 - 17.50) * 80000 market-rate formula.
	noi, source, err := client.Lookup(context.Background(), "rental", 80000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if noi != 1160000 {
		t.Errorf("Expected market-rate NOI 1160000, got %v", noi)
	}
	if source != SourceMarketRate {
		t.Errorf("Expected market-rate source, got %q", source)
	}
	if atomic.LoadInt64(&requests) != 0 {
		t.Errorf("Rentals must not hit the registry, saw %d requests", requests)
	}
}

func TestLookupWithoutURL(t *testing.T) {
	client := NewClient("")

	noi, source, err := client.Lookup(context.Background(), "cooperative", 100000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if noi != 1450000 {
		t.Errorf("Expected market-rate NOI 1450000, got %v", noi)
	}
	if source != SourceMarketRate {
		t.Errorf("Expected market-rate source, got %q", source)
	}
}

func TestLookupServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)
	client := NewClient(server.URL)

	if _, _, err := client.Lookup(context.Background(), "cooperative", 100000); err == nil {
		t.Error("Expected an error for a 503 registry")
	}
}

func TestLookupMissingRow(t *testing.T) {
	body := `<table><tr><td>Condominium</td><td>34.10</td><td>16.85</td></tr></table>`
	server := newRegistryServer(t, body, nil)
	client := NewClient(server.URL)

	_, _, err := client.Lookup(context.Background(), "cooperative", 100000)
	if err == nil {
		t.Fatal("Expected an error when the type has no row")
	}
}

func TestLookupUnparseableAmount(t *testing.T) {
	body := `<table><tr><td>Cooperative</td><td>n/a</td><td>14.20</td></tr></table>`
	server := newRegistryServer(t, body, nil)
	client := NewClient(server.URL)

	if _, _, err := client.Lookup(context.Background(), "cooperative", 100000); err == nil {
		t.Error("Expected an error for an unparseable amount")
	}
}

func TestParseDollars(t *testing.T) {
	cases := []struct {
		input    string
		expected float64
	}{
		{"$28.75", 28.75},
		{"1,455,000", 1455000},
		{" 14.20 ", 14.2},
		{"$ 1,234.56", 1234.56},
	}
	for _, tc := range cases {
		got, err := parseDollars(tc.input)
		if err != nil {
			t.Errorf("parseDollars(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.expected {
			t.Errorf("parseDollars(%q): expected %v, got %v", tc.input, tc.expected, got)
		}
	}
}
