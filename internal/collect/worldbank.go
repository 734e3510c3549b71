package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

const (
	defaultWorldBankURL = "https://api.worldbank.org/v2"
	worldBankPageSize   = 20000
	worldBankMaxPages   = 100
)

// IndicatorRow is one line of the per-country indicator file.
type IndicatorRow struct {
	Country string   `json:"country"`
	Year    string   `json:"year"`
	Meaning string   `json:"meaning"`
	Value   *float64 `json:"value"`
}

// CountryRow is one line of the country metadata file, in World Bank shape.
type CountryRow struct {
	ID       string `json:"id"`
	ISO2Code string `json:"iso2Code"`
	Name     string `json:"name"`
	Region   struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"region"`
	CapitalCity string `json:"capitalCity"`
	Longitude   string `json:"longitude"`
	Latitude    string `json:"latitude"`
}

// flexInt accepts both 3 and "3"; the World Bank API mixes the two.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type worldBankPage struct {
	Page  flexInt `json:"page"`
	Pages flexInt `json:"pages"`
}

type worldBankIndicatorEntry struct {
	Country struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"country"`
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// WorldBankClient pages through World Bank API collections.
type WorldBankClient struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewWorldBankClient creates a client. An empty baseURL selects the public API.
func NewWorldBankClient(cfg HTTPClientConfig, baseURL string) *WorldBankClient {
	if baseURL == "" {
		baseURL = defaultWorldBankURL
	}
	return &WorldBankClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newCircuitBreaker("worldbank"),
	}
}

// fetchAll requests every page of path and calls onPage with each page's
// record array.
func (c *WorldBankClient) fetchAll(ctx context.Context, path string, perPage int, onPage func(json.RawMessage) error) error {
	for page := 1; page <= worldBankMaxPages; page++ {
		values := url.Values{}
		values.Set("format", "json")
		values.Set("per_page", strconv.Itoa(perPage))
		values.Set("page", strconv.Itoa(page))
		u := fmt.Sprintf("%s/%s?%s", c.baseURL, path, values.Encode())

		resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		})
		if err != nil {
			return err
		}

		var envelope []json.RawMessage
		err = json.NewDecoder(resp.Body).Decode(&envelope)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode %s page %d: %w", path, page, err)
		}
		// The API answers errors with a single message element.
		if len(envelope) < 2 {
			return fmt.Errorf("%s page %d: unexpected response with %d elements", path, page, len(envelope))
		}

		var meta worldBankPage
		if err := json.Unmarshal(envelope[0], &meta); err != nil {
			return fmt.Errorf("decode %s page %d metadata: %w", path, page, err)
		}
		if err := onPage(envelope[1]); err != nil {
			return err
		}
		if int(meta.Pages) <= page {
			return nil
		}
	}
	return fmt.Errorf("%s: more than %d pages", path, worldBankMaxPages)
}

// WorldBankIndicators collects the per-country indicator feed for every
// catalogued metric.
type WorldBankIndicators struct {
	client  *WorldBankClient
	metrics []climate.MetricInfo
}

// NewWorldBankIndicators creates the indicator collector for the catalogued
// metrics.
func NewWorldBankIndicators(client *WorldBankClient) *WorldBankIndicators {
	return &WorldBankIndicators{client: client, metrics: climate.Metrics()}
}

func (w *WorldBankIndicators) Feed() string { return "indicators" }

// Collect returns the rows of every metric. Null values are kept; the index
// builder drops them.
func (w *WorldBankIndicators) Collect(ctx context.Context) (any, error) {
	rows := []IndicatorRow{}
	for _, m := range w.metrics {
		path := fmt.Sprintf("country/all/indicator/%s", url.PathEscape(m.Indicator))
		err := w.client.fetchAll(ctx, path, worldBankPageSize, func(raw json.RawMessage) error {
			var entries []worldBankIndicatorEntry
			if err := json.Unmarshal(raw, &entries); err != nil {
				return fmt.Errorf("decode %s entries: %w", m.Key, err)
			}
			for _, e := range entries {
				rows = append(rows, IndicatorRow{
					Country: e.Country.Value,
					Year:    e.Date,
					Meaning: m.Label,
					Value:   e.Value,
				})
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", m.Indicator, err)
		}
	}
	return rows, nil
}

// WorldBankCountries collects the country metadata feed.
type WorldBankCountries struct {
	client *WorldBankClient
}

// NewWorldBankCountries creates the country metadata collector.
func NewWorldBankCountries(client *WorldBankClient) *WorldBankCountries {
	return &WorldBankCountries{client: client}
}

func (w *WorldBankCountries) Feed() string { return "countries" }

// Collect returns the record array wrapped in an enclosing array, which is
// the layout the loader reads the records from.
func (w *WorldBankCountries) Collect(ctx context.Context) (any, error) {
	rows := []CountryRow{}
	err := w.client.fetchAll(ctx, "country", 400, func(raw json.RawMessage) error {
		var page []CountryRow
		if err := json.Unmarshal(raw, &page); err != nil {
			return fmt.Errorf("decode countries: %w", err)
		}
		rows = append(rows, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return [][]CountryRow{rows}, nil
}
