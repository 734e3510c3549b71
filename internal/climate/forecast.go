package climate

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ModelRow is one observation or prediction in the flat table exchanged with
// a trend model.
type ModelRow struct {
	Metric string  `json:"metric"`
	Year   float64 `json:"year"`
	Value  float64 `json:"value"`
}

// Model fits the observed rows and predicts nYears yearly values per metric,
// starting with the year after the last observed one.
type Model interface {
	Predict(rows []ModelRow, nYears int) ([]ModelRow, error)
}

// ReshapeForModel flattens a set of global series into one table, ordered by
// metric key and then year.
func ReshapeForModel(set map[string]Series) []ModelRow {
	metrics := make([]string, 0, len(set))
	for m := range set {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	var rows []ModelRow
	for _, m := range metrics {
		s := set[m]
		for i := range s.Years {
			rows = append(rows, ModelRow{Metric: m, Year: s.Years[i], Value: s.Values[i]})
		}
	}
	return rows
}

// ReshapeFromModel groups predictions per metric in year order and shifts
// each sequence so its first value equals the metric's last observed value.
// Metrics without an observation are returned unshifted.
func ReshapeFromModel(predictions []ModelRow, lastObserved map[string]float64) map[string][]float64 {
	grouped := make(map[string][]ModelRow)
	for _, p := range predictions {
		grouped[p.Metric] = append(grouped[p.Metric], p)
	}

	out := make(map[string][]float64, len(grouped))
	for m, rows := range grouped {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })

		shift := 0.0
		if last, ok := lastObserved[m]; ok {
			shift = last - rows[0].Value
		}
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = r.Value + shift
		}
		out[m] = values
	}
	return out
}

// Forecast runs model over the given series and returns anchored predictions
// per metric. Series without points are ignored.
func Forecast(set map[string]Series, model Model, nYears int) (map[string][]float64, error) {
	if nYears <= 0 {
		return nil, invalidf("forecast horizon must be positive, got %d", nYears)
	}

	observed := make(map[string]Series, len(set))
	last := make(map[string]float64, len(set))
	for m, s := range set {
		if v, ok := s.Last(); ok {
			observed[m] = s
			last[m] = v
		}
	}
	if len(observed) == 0 {
		return map[string][]float64{}, nil
	}

	preds, err := model.Predict(ReshapeForModel(observed), nYears)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	return ReshapeFromModel(preds, last), nil
}

// PolynomialModel is a least-squares polynomial trend over yearly means.
// Observations are grouped by whole year and averaged before fitting.
type PolynomialModel struct {
	Degree int
}

var errSingularFit = errors.New("polynomial fit is singular")

// Predict implements Model.
func (p PolynomialModel) Predict(rows []ModelRow, nYears int) ([]ModelRow, error) {
	type acc struct {
		sum float64
		n   int
	}
	perMetric := make(map[string]map[int]*acc)
	for _, r := range rows {
		years, ok := perMetric[r.Metric]
		if !ok {
			years = make(map[int]*acc)
			perMetric[r.Metric] = years
		}
		y := int(r.Year)
		a, ok := years[y]
		if !ok {
			a = &acc{}
			years[y] = a
		}
		a.sum += r.Value
		a.n++
	}

	metrics := make([]string, 0, len(perMetric))
	for m := range perMetric {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	var out []ModelRow
	for _, m := range metrics {
		years := make([]int, 0, len(perMetric[m]))
		for y := range perMetric[m] {
			years = append(years, y)
		}
		sort.Ints(years)

		xs := make([]float64, len(years))
		ys := make([]float64, len(years))
		for i, y := range years {
			a := perMetric[m][y]
			xs[i] = float64(y)
			ys[i] = a.sum / float64(a.n)
		}

		degree := p.Degree
		if degree > len(xs)-1 {
			degree = len(xs) - 1
		}
		if degree < 0 {
			degree = 0
		}

		center := mean(xs)
		coeffs, err := fitPolynomial(xs, ys, center, degree)
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", m, err)
		}

		lastYear := years[len(years)-1]
		for i := 1; i <= nYears; i++ {
			x := float64(lastYear + i)
			out = append(out, ModelRow{Metric: m, Year: x, Value: evalPolynomial(coeffs, x-center)})
		}
	}
	return out, nil
}

// fitPolynomial solves the normal equations for coefficients c0..cdegree of
// sum(c_k * (x-center)^k).
func fitPolynomial(xs, ys []float64, center float64, degree int) ([]float64, error) {
	n := degree + 1
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n+1)
	}
	for k, x := range xs {
		dx := x - center
		pow := make([]float64, 2*n-1)
		pow[0] = 1
		for i := 1; i < len(pow); i++ {
			pow[i] = pow[i-1] * dx
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a[i][j] += pow[i+j]
			}
			a[i][n] += pow[i] * ys[k]
		}
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, errSingularFit
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c <= n; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	coeffs := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		v := a[i][n]
		for j := i + 1; j < n; j++ {
			v -= a[i][j] * coeffs[j]
		}
		coeffs[i] = v / a[i][i]
	}
	return coeffs, nil
}

func evalPolynomial(coeffs []float64, x float64) float64 {
	v := 0.0
	for i := len(coeffs) - 1; i >= 0; i-- {
		v = v*x + coeffs[i]
	}
	return v
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
