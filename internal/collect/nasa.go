package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"golang.org/x/net/html"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
	"github.com/i474232898/climate-data-aggregation/internal/common"
)

const defaultVitalSignsURL = "https://climate.nasa.gov/vital-signs"

var errNoChart = errors.New("no chart data found on page")

// VitalSigns scrapes the chart data embedded in the climate vital-signs
// pages, one page per global indicator.
type VitalSigns struct {
	log     *slog.Logger
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	ids     []string
}

// NewVitalSigns creates the global indicator collector. An empty baseURL
// selects the public site.
func NewVitalSigns(log *slog.Logger, cfg HTTPClientConfig, baseURL string) *VitalSigns {
	if baseURL == "" {
		baseURL = defaultVitalSignsURL
	}
	var ids []string
	for _, g := range climate.GlobalMetrics() {
		ids = append(ids, g.FeedID)
	}
	return &VitalSigns{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCfg: cfg,
		circuit: newCircuitBreaker("vitalsigns"),
		ids:     ids,
	}
}

func (v *VitalSigns) Feed() string { return "global" }

// Collect returns feed id → year → value. Pages that fail are logged and
// left out; the run fails only when no page could be read.
func (v *VitalSigns) Collect(ctx context.Context) (any, error) {
	out := make(map[string]map[string]float64, len(v.ids))
	var errs []error
	for _, id := range v.ids {
		points, err := v.fetch(ctx, id)
		if err != nil {
			v.log.Warn("vital sign fetch failed", "id", id, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		out[id] = points
	}
	if len(out) == 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (v *VitalSigns) fetch(ctx context.Context, id string) (map[string]float64, error) {
	u := fmt.Sprintf("%s/%s/", v.baseURL, id)
	resp, err := doRequestWithResilience(ctx, v.httpCfg, v.circuit, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	props, ok := findChartProps(doc)
	if !ok {
		return nil, errNoChart
	}
	return parseChartProps(props)
}

// findChartProps returns the data-react-props attribute of the first line
// chart element in document order.
func findChartProps(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode {
		var class, props string
		for _, a := range n.Attr {
			switch a.Key {
			case "data-react-class":
				class = a.Val
			case "data-react-props":
				props = a.Val
			}
		}
		if props != "" && common.HasAny(class, "MultiLineChart", "LineChart") {
			return props, true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if props, ok := findChartProps(c); ok {
			return props, true
		}
	}
	return "", false
}

// parseChartProps reads {"items": [{"x": year, "y": value}, ...]}. Items
// without both coordinates are skipped.
func parseChartProps(props string) (map[string]float64, error) {
	var payload struct {
		Items []struct {
			X any `json:"x"`
			Y any `json:"y"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(props), &payload); err != nil {
		return nil, fmt.Errorf("decode chart props: %w", err)
	}

	points := make(map[string]float64, len(payload.Items))
	for _, it := range payload.Items {
		year, ok := asText(it.X)
		if !ok {
			continue
		}
		yText, ok := asText(it.Y)
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(yText, 64)
		if err != nil {
			continue
		}
		points[year] = value
	}
	if len(points) == 0 {
		return nil, errNoChart
	}
	return points, nil
}

func asText(v any) (string, bool) {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case string:
		t = strings.TrimSpace(t)
		return t, t != ""
	default:
		return "", false
	}
}
