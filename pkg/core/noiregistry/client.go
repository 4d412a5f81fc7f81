// Package noiregistry resolves a building's baseline net operating income
// from the published cooperative/condominium income-and-expense table,
// with the citywide market-rate formula as the deterministic fallback.
package noiregistry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"retrofit_valuation/pkg/core/calc"
	"retrofit_valuation/pkg/core/valuation"
)

const userAgent = "retrofit-valuation/1.0 building analysis"

// Source labels recorded on the calculation record.
const (
	SourceRegistry   = "registry"
	SourceMarketRate = "market-rate"
)

// Client fetches and parses the income-and-expense table. A client with no
// URL answers every lookup with the market-rate formula.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a registry client for the given table URL. An empty
// URL selects fallback-only operation.
func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Lookup resolves the annual baseline NOI for a building. Cooperative and
// condominium buildings resolve through the registry table; everything
// else (market-rate rentals) uses the per-sqft fallback formula. A
// reachable registry with unusable data is an error, never a silent
// fallback.
func (c *Client) Lookup(ctx context.Context, buildingType string, totalSqft float64) (float64, string, error) {
	normalized := strings.ToLower(strings.TrimSpace(buildingType))
	if c.url == "" || (normalized != "cooperative" && normalized != "condominium") {
		return valuation.MarketRateNOI(totalSqft), SourceMarketRate, nil
	}

	income, expense, err := c.fetchRates(ctx, normalized)
	if err != nil {
		return 0, "", fmt.Errorf("noi registry: %w", err)
	}
	return calc.Round2((income - expense) * totalSqft), SourceRegistry, nil
}

// fetchRates pulls the table and extracts the per-sqft income and expense
// figures for one building type.
func (c *Client) fetchRates(ctx context.Context, buildingType string) (float64, float64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("registry returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse registry html: %w", err)
	}

	var income, expense float64
	var parseErr error
	found := false
	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		if found || parseErr != nil {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		if strings.ToLower(strings.TrimSpace(cells.Eq(0).Text())) != buildingType {
			return
		}

		inc, err := parseDollars(cells.Eq(1).Text())
		if err != nil {
			parseErr = err
			return
		}
		exp, err := parseDollars(cells.Eq(2).Text())
		if err != nil {
			parseErr = err
			return
		}
		income, expense, found = inc, exp, true
	})
	if parseErr != nil {
		return 0, 0, parseErr
	}
	if !found {
		return 0, 0, fmt.Errorf("no income and expense row for %s", buildingType)
	}
	return income, expense, nil
}

// parseDollars reads a table cell amount, tolerating currency formatting.
func parseDollars(s string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", strings.TrimSpace(s))
	}
	return v, nil
}
