// Package lm tidies fitted linear and generalized linear models. Model
// fitting is external: adapters are constructed from an existing fit's pieces
// (design matrix, response, coefficient values, link) and the tidiers only
// derive and reshape coefficient tables, per-observation diagnostics and
// one-row summaries from them.
package lm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
)

// Model is a fitted linear model, possibly multi-response. A model built
// without its design matrix and response supports only the quick coefficient
// path; the inferential and observation-level operations need both.
type Model struct {
	terms        []string
	coef         *mat.Dense // p×k coefficient values
	responses    []string   // response names, len k
	responseName string     // response column name in new data
	hasIntercept bool
	profiler     model.ProfileFunc

	x *mat.Dense // n×p design matrix
	y *mat.Dense // n×k response

	// derived from x and y
	n             int
	fitted        *mat.Dense
	resid         *mat.Dense
	covUnscaled   *mat.Dense // (X'X)^-1, nil for rank-deficient fits
	rss           []float64  // per response
	sigma         []float64  // per response
	hat           []float64
	rankDeficient bool
}

// ModelOption configures a Model adapter.
type ModelOption func(*Model)

// WithData attaches the design matrix and response the model was fitted on.
// Required for everything beyond the quick coefficient path.
func WithData(x, y *mat.Dense) ModelOption {
	return func(m *Model) {
		m.x = x
		m.y = y
	}
}

// WithResponseNames names the responses of a multi-response fit.
func WithResponseNames(names []string) ModelOption {
	return func(m *Model) { m.responses = names }
}

// WithResponseName names the response column, used to compute residuals
// against new data.
func WithResponseName(name string) ModelOption {
	return func(m *Model) { m.responseName = name }
}

// WithProfiler attaches the external fit's profile-likelihood interval
// routine, enabling the "profile" confidence method.
func WithProfiler(fn model.ProfileFunc) ModelOption {
	return func(m *Model) { m.profiler = fn }
}

// New creates a linear-model adapter from an external fit's terms and
// coefficient values. Derived read-only quantities (fitted values, residuals,
// unscaled covariance, leverage) are computed once here when data is attached.
func New(terms []string, coef *mat.Dense, opts ...ModelOption) (*Model, error) {
	if coef == nil {
		return nil, errors.NewNotFittedError("lm", "coefficient values")
	}
	p, k := coef.Dims()
	if len(terms) != p {
		return nil, errors.NewDimensionError("lm.New", p, len(terms), 0)
	}

	m := &Model{
		terms:        terms,
		coef:         coef,
		hasIntercept: p > 0 && terms[0] == "(Intercept)",
	}
	for _, opt := range opts {
		opt(m)
	}

	if k > 1 && m.responses == nil {
		m.responses = make([]string, k)
		for j := range m.responses {
			m.responses[j] = fmt.Sprintf("Y%d", j+1)
		}
	}
	if m.responses != nil && len(m.responses) != k {
		return nil, errors.NewDimensionError("lm.New", k, len(m.responses), 1)
	}

	if m.x != nil || m.y != nil {
		if m.x == nil || m.y == nil {
			return nil, errors.NewNotFittedError("lm", "both design matrix and response")
		}
		n, xc := m.x.Dims()
		yr, yc := m.y.Dims()
		if xc != p {
			return nil, errors.NewDimensionError("lm.New", p, xc, 1)
		}
		if yr != n {
			return nil, errors.NewDimensionError("lm.New", n, yr, 0)
		}
		if yc != k {
			return nil, errors.NewDimensionError("lm.New", k, yc, 1)
		}
		if n <= p {
			return nil, errors.NewValueError("lm.New", "need more observations than parameters")
		}
		m.n = n
		m.derive()
	}
	return m, nil
}

// derive computes fitted values, residuals, residual sums of squares, sigma,
// the unscaled covariance and the hat diagonal.
func (m *Model) derive() {
	p, k := m.coef.Dims()
	n := m.n

	m.fitted = mat.NewDense(n, k, nil)
	m.fitted.Mul(m.x, m.coef)
	m.resid = mat.NewDense(n, k, nil)
	m.resid.Sub(m.y, m.fitted)

	m.rss = make([]float64, k)
	m.sigma = make([]float64, k)
	dfRes := float64(n - p)
	for j := 0; j < k; j++ {
		var rss float64
		for i := 0; i < n; i++ {
			r := m.resid.At(i, j)
			rss += r * r
		}
		m.rss[j] = rss
		m.sigma[j] = math.Sqrt(rss / dfRes)
	}

	var xtx mat.Dense
	xtx.Mul(m.x.T(), m.x)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		// Singular cross-product: the fit is rank-deficient. Coefficient
		// values remain usable; inferential statistics become missing.
		m.rankDeficient = true
		return
	}
	m.covUnscaled = &inv

	m.hat = make([]float64, n)
	for i := 0; i < n; i++ {
		m.hat[i] = m.quadForm(mat.Row(nil, i, m.x))
	}
}

// quadForm computes row·covUnscaled·row'.
func (m *Model) quadForm(row []float64) float64 {
	p := len(row)
	var h float64
	for a := 0; a < p; a++ {
		for b := 0; b < p; b++ {
			h += row[a] * m.covUnscaled.At(a, b) * row[b]
		}
	}
	return h
}

// ModelKind implements model.Fitted.
func (m *Model) ModelKind() model.Kind {
	if m.IsMultiResponse() {
		return model.KindMLM
	}
	return model.KindLM
}

// IsMultiResponse reports whether the fit has more than one response.
func (m *Model) IsMultiResponse() bool {
	_, k := m.coef.Dims()
	return k > 1
}

// Terms returns the coefficient names in model order.
func (m *Model) Terms() []string {
	return m.terms
}

// NumParams returns the number of model parameters per response.
func (m *Model) NumParams() int {
	p, _ := m.coef.Dims()
	return p
}

// NumObs returns the number of training observations, or 0 when the model was
// built without data.
func (m *Model) NumObs() int {
	return m.n
}

// hasInference reports whether standard errors can be derived.
func (m *Model) hasInference() bool {
	return m.covUnscaled != nil && m.sigma != nil
}

// stdErrors returns the coefficient standard errors for response j, or nil
// for fits without inferential statistics.
func (m *Model) stdErrors(j int) []float64 {
	if !m.hasInference() {
		return nil
	}
	p := m.NumParams()
	se := make([]float64, p)
	for i := 0; i < p; i++ {
		se[i] = m.sigma[j] * math.Sqrt(m.covUnscaled.At(i, i))
	}
	return se
}

// predict returns fitted values and their standard errors for the rows of
// newX, single-response only.
func (m *Model) predict(newX *mat.Dense) (fit, seFit []float64, err error) {
	if m.coef == nil {
		return nil, nil, errors.NewNotFittedError("lm", "coefficient values")
	}
	n, c := newX.Dims()
	p := m.NumParams()
	if c != p {
		return nil, nil, errors.NewDimensionError("lm.predict", p, c, 1)
	}

	var f mat.Dense
	f.Mul(newX, m.coef)
	fit = mat.Col(nil, 0, &f)

	if m.hasInference() {
		seFit = make([]float64, n)
		for i := 0; i < n; i++ {
			h := m.quadForm(mat.Row(nil, i, newX))
			seFit[i] = m.sigma[0] * math.Sqrt(h)
		}
	}
	return fit, seFit, nil
}
