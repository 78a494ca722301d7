package lm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// Prediction and residual type names passed through to the model's own
// prediction/residual computation.
const (
	PredictResponse = "response"
	PredictLink     = "link"

	ResidResponse = "response"
	ResidDeviance = "deviance"
	ResidPearson  = "pearson"
)

// AugmentOption configures Augment.
type AugmentOption func(*augmentConfig)

type augmentConfig struct {
	data      *table.Table
	newData   *table.Table
	predType  string
	residType string
}

// WithAugmentData supplies the original observation-level dataset; its
// columns are carried through ahead of the diagnostic columns.
func WithAugmentData(data *table.Table) AugmentOption {
	return func(c *augmentConfig) { c.data = data }
}

// WithNewData switches to the new-observation path: three prediction columns
// instead of the full training diagnostics.
func WithNewData(newData *table.Table) AugmentOption {
	return func(c *augmentConfig) { c.newData = newData }
}

// WithPredictionType selects among the model's prediction variants.
func WithPredictionType(t string) AugmentOption {
	return func(c *augmentConfig) { c.predType = t }
}

// WithResidualType selects among the model's residual variants.
func WithResidualType(t string) AugmentOption {
	return func(c *augmentConfig) { c.residType = t }
}

func newAugmentConfig(opts []AugmentOption) *augmentConfig {
	c := &augmentConfig{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// designFromTerms builds a design matrix from a dataset by matching the
// model's term names to numeric columns; "(Intercept)" becomes a column of
// ones.
func designFromTerms(op string, terms []string, data *table.Table) (*mat.Dense, error) {
	n := data.NumRows()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, op)
	}
	out := mat.NewDense(n, len(terms), nil)
	for j, term := range terms {
		if term == "(Intercept)" {
			for i := 0; i < n; i++ {
				out.Set(i, j, 1)
			}
			continue
		}
		vals, ok := data.Numeric(term)
		if !ok {
			return nil, errors.NewValueError(op, "data is missing numeric column "+term)
		}
		for i := 0; i < n; i++ {
			out.Set(i, j, vals[i])
		}
	}
	return out, nil
}

// Augment appends per-observation diagnostic columns. Without new data it
// emits the full training diagnostics {.fitted, .se.fit, .resid, .hat,
// .sigma, .cooksd, .std.resid}, one row per training observation in training
// order; with new data it emits {.fitted, .se.fit} plus .resid when the new
// data carries the response column. Undefined for multi-response fits.
func (m *Model) Augment(opts ...AugmentOption) (*table.Table, error) {
	if m.IsMultiResponse() {
		return nil, errors.NewUnsupportedOperationError("lm.Augment", "mlm",
			"observation-level diagnostics are defined per single response")
	}
	cfg := newAugmentConfig(opts)
	switch cfg.predType {
	case "", PredictResponse:
	default:
		return nil, errors.NewInvalidArgumentError("lm.Augment", "prediction.type",
			cfg.predType, "linear models predict on the response scale only")
	}
	switch cfg.residType {
	case "", ResidResponse:
	default:
		return nil, errors.NewInvalidArgumentError("lm.Augment", "residual.type",
			cfg.residType, "linear models have response-scale residuals only")
	}
	if m.x == nil {
		return nil, errors.NewNotFittedError("lm", "design matrix and response")
	}

	if cfg.newData != nil {
		return m.augmentNewData(cfg.newData)
	}
	return m.augmentTraining(cfg.data)
}

func (m *Model) augmentTraining(data *table.Table) (*table.Table, error) {
	n := m.n
	p := m.NumParams()
	if data != nil && data.NumRows() != n {
		return nil, errors.NewDimensionError("lm.Augment", n, data.NumRows(), 0)
	}

	fitted := mat.Col(nil, 0, m.fitted)
	resid := mat.Col(nil, 0, m.resid)

	var seFit, sigmaLOO, cooksd, stdResid []float64
	if m.hasInference() {
		sigma := m.sigma[0]
		rss := m.rss[0]
		seFit = make([]float64, n)
		sigmaLOO = make([]float64, n)
		cooksd = make([]float64, n)
		stdResid = make([]float64, n)
		for i := 0; i < n; i++ {
			h := m.hat[i]
			r := resid[i]
			seFit[i] = sigma * math.Sqrt(h)
			sigmaLOO[i] = math.Sqrt((rss - r*r/(1-h)) / float64(n-p-1))
			cooksd[i] = r * r * h / (float64(p) * sigma * sigma * (1 - h) * (1 - h))
			stdResid[i] = r / (sigma * math.Sqrt(1-h))
		}
	} else {
		for _, col := range []string{".se.fit", ".hat", ".sigma", ".cooksd", ".std.resid"} {
			errors.Warn(errors.NewMissingDiagnosticWarning("lm.Augment", col, "rank-deficient lm"))
		}
	}

	return table.WithDiagnostics(data, []table.Diagnostic{
		{Name: ".fitted", Values: fitted},
		{Name: ".se.fit", Values: seFit},
		{Name: ".resid", Values: resid},
		{Name: ".hat", Values: m.hat},
		{Name: ".sigma", Values: sigmaLOO},
		{Name: ".cooksd", Values: cooksd},
		{Name: ".std.resid", Values: stdResid},
	})
}

func (m *Model) augmentNewData(newData *table.Table) (*table.Table, error) {
	newX, err := designFromTerms("lm.Augment", m.terms, newData)
	if err != nil {
		return nil, err
	}
	fit, seFit, err := m.predict(newX)
	if err != nil {
		return nil, err
	}

	var resid []float64
	if m.responseName != "" {
		if y, ok := newData.Numeric(m.responseName); ok {
			resid = make([]float64, len(y))
			for i := range y {
				resid[i] = y[i] - fit[i]
			}
		}
	}

	return table.WithDiagnostics(newData, []table.Diagnostic{
		{Name: ".fitted", Values: fit},
		{Name: ".se.fit", Values: seFit},
		{Name: ".resid", Values: resid},
	})
}

// Augment appends per-observation diagnostics for a generalized linear fit.
// The training path omits the leave-one-out sigma, Cook's distance and
// standardized residuals: those are capability gaps of this adapter's model
// type, reported as warnings rather than failures.
func (g *GLM) Augment(opts ...AugmentOption) (*table.Table, error) {
	cfg := newAugmentConfig(opts)
	switch cfg.residType {
	case "", ResidResponse, ResidDeviance, ResidPearson:
	default:
		return nil, errors.NewInvalidArgumentError("lm.GLM.Augment", "residual.type",
			cfg.residType, "expected response, deviance or pearson")
	}

	if cfg.newData != nil {
		return g.augmentNewData(cfg.newData, cfg.predType)
	}
	return g.augmentTraining(cfg.data, cfg.predType, cfg.residType)
}

func (g *GLM) augmentTraining(data *table.Table, predType, residType string) (*table.Table, error) {
	if g.fitted == nil {
		return nil, errors.NewNotFittedError("glm", "linear predictors or design matrix")
	}
	n := len(g.fitted)
	if data != nil && data.NumRows() != n {
		return nil, errors.NewDimensionError("lm.GLM.Augment", n, data.NumRows(), 0)
	}

	fitted := g.fitted
	switch predType {
	case "", PredictResponse:
	case PredictLink:
		fitted = g.eta
	default:
		return nil, errors.NewInvalidArgumentError("lm.GLM.Augment", "prediction.type",
			predType, "expected response or link")
	}

	resid, ok := g.residuals(residType)
	if !ok {
		errors.Warn(errors.NewMissingDiagnosticWarning("lm.GLM.Augment", ".resid ("+residType+")", "glm"))
	}
	if g.hat == nil {
		errors.Warn(errors.NewMissingDiagnosticWarning("lm.GLM.Augment", ".hat", "glm"))
	}
	for _, col := range []string{".sigma", ".cooksd", ".std.resid"} {
		errors.Warn(errors.NewMissingDiagnosticWarning("lm.GLM.Augment", col, "glm"))
	}

	return table.WithDiagnostics(data, []table.Diagnostic{
		{Name: ".fitted", Values: fitted},
		{Name: ".resid", Values: resid},
		{Name: ".hat", Values: g.hat},
	})
}

func (g *GLM) augmentNewData(newData *table.Table, predType string) (*table.Table, error) {
	newX, err := designFromTerms("lm.GLM.Augment", g.terms, newData)
	if err != nil {
		return nil, err
	}
	fit, seFit, err := g.predict(newX, predType)
	if err != nil {
		return nil, err
	}
	if seFit == nil {
		errors.Warn(errors.NewMissingDiagnosticWarning("lm.GLM.Augment", ".se.fit", "glm"))
	}

	var resid []float64
	if g.responseName != "" && (predType == "" || predType == PredictResponse) {
		if y, ok := newData.Numeric(g.responseName); ok {
			resid = make([]float64, len(y))
			for i := range y {
				resid[i] = y[i] - fit[i]
			}
		}
	}

	return table.WithDiagnostics(newData, []table.Diagnostic{
		{Name: ".fitted", Values: fit},
		{Name: ".se.fit", Values: seFit},
		{Name: ".resid", Values: resid},
	})
}
