// Package mixed tidies fitted mixed-effects models. As everywhere in this
// library, estimation is external: the adapter is constructed from an
// existing fit's pieces (fixed-effect estimates, random-effect
// variance/covariance blocks, conditional modes, fit statistics) and the
// tidiers reshape them into a unified long-format table, per-observation
// predictions and a one-row summary.
package mixed

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// Group holds one random-effect grouping factor: its terms, the
// standard-deviation/correlation parameterization of their covariance, and
// optionally the conditional modes (BLUPs) with their conditional variances.
type Group struct {
	Name    string
	Terms   []string
	SD      []float64     // per-term standard deviations
	Corr    *mat.SymDense // term×term correlations, nil means uncorrelated
	Levels  []string
	Modes   *mat.Dense // levels×terms conditional modes
	CondVar *mat.Dense // levels×terms conditional variances of the modes
}

// PredictFunc computes fitted values (and the fixed-effects-only part) for
// new observations. Prediction on new data needs the fit's own machinery, so
// it is delegated through a function attached at construction time.
type PredictFunc func(newData *table.Table, predictionType string) (fitted, fixed []float64, err error)

// Model is a fitted mixed-effects model, conditional component only.
type Model struct {
	fixedTerms []string
	fixedCoef  []float64
	fixedSE    []float64
	groups     []Group

	sigma    float64
	logLik   float64
	aic      float64
	bic      float64
	deviance float64

	fitted      []float64
	fittedFixed []float64
	resid       []float64
	seFit       []float64

	fixedProfiler   model.ProfileFunc
	ranParsProfiler model.ProfileFunc
	predictFn       PredictFunc
}

// Option configures a mixed-model adapter.
type Option func(*Model)

// WithGroup attaches one random-effect grouping factor. Order of attachment
// is the order groups appear in tidy output.
func WithGroup(g Group) Option {
	return func(m *Model) { m.groups = append(m.groups, g) }
}

// WithSigma attaches the residual standard deviation.
func WithSigma(sigma float64) Option {
	return func(m *Model) { m.sigma = sigma }
}

// WithFitStats attaches the fit statistics for the one-row summary.
func WithFitStats(logLik, aic, bic, deviance float64) Option {
	return func(m *Model) {
		m.logLik = logLik
		m.aic = aic
		m.bic = bic
		m.deviance = deviance
	}
}

// WithObservations attaches the per-observation vectors: fitted values,
// fixed-effects-only fitted values (no random-effect contribution) and
// residuals.
func WithObservations(fitted, fixed, resid []float64) Option {
	return func(m *Model) {
		m.fitted = fitted
		m.fittedFixed = fixed
		m.resid = resid
	}
}

// WithSEFit attaches standard errors of the fitted values.
func WithSEFit(seFit []float64) Option {
	return func(m *Model) { m.seFit = seFit }
}

// WithFixedProfiler attaches the fit's profile-likelihood routine for fixed
// terms, one interval per fixed term.
func WithFixedProfiler(fn model.ProfileFunc) Option {
	return func(m *Model) { m.fixedProfiler = fn }
}

// WithRanParsProfiler attaches the fit's profile routine for the
// variance/covariance parameters, one interval per ran_pars row in output
// order, on the variance-parameter scale.
func WithRanParsProfiler(fn model.ProfileFunc) Option {
	return func(m *Model) { m.ranParsProfiler = fn }
}

// WithPredictFunc attaches the fit's prediction machinery for new data.
func WithPredictFunc(fn PredictFunc) Option {
	return func(m *Model) { m.predictFn = fn }
}

// New creates a mixed-model adapter from the fixed-effect estimates and their
// standard errors, plus whatever optional pieces the external fit provides.
func New(fixedTerms []string, fixedCoef, fixedSE []float64, opts ...Option) (*Model, error) {
	if len(fixedCoef) == 0 {
		return nil, errors.NewNotFittedError("mixed", "fixed-effect estimates")
	}
	if len(fixedTerms) != len(fixedCoef) {
		return nil, errors.NewDimensionError("mixed.New", len(fixedCoef), len(fixedTerms), 0)
	}
	if len(fixedSE) != len(fixedCoef) {
		return nil, errors.NewDimensionError("mixed.New", len(fixedCoef), len(fixedSE), 0)
	}

	m := &Model{
		fixedTerms: fixedTerms,
		fixedCoef:  fixedCoef,
		fixedSE:    fixedSE,
		sigma:      math.NaN(),
		logLik:     math.NaN(),
		aic:        math.NaN(),
		bic:        math.NaN(),
		deviance:   math.NaN(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, g := range m.groups {
		if err := validateGroup(g); err != nil {
			return nil, err
		}
	}
	if m.fitted != nil {
		n := len(m.fitted)
		if m.resid != nil && len(m.resid) != n {
			return nil, errors.NewDimensionError("mixed.New", n, len(m.resid), 0)
		}
		if m.fittedFixed != nil && len(m.fittedFixed) != n {
			return nil, errors.NewDimensionError("mixed.New", n, len(m.fittedFixed), 0)
		}
		if m.seFit != nil && len(m.seFit) != n {
			return nil, errors.NewDimensionError("mixed.New", n, len(m.seFit), 0)
		}
	}
	return m, nil
}

func validateGroup(g Group) error {
	nt := len(g.Terms)
	if nt == 0 {
		return errors.NewNotFittedError("mixed", "random-effect terms for group "+g.Name)
	}
	if len(g.SD) != nt {
		return errors.NewDimensionError("mixed.New", nt, len(g.SD), 0)
	}
	if g.Corr != nil {
		if r, _ := g.Corr.Dims(); r != nt {
			return errors.NewDimensionError("mixed.New", nt, r, 0)
		}
	}
	if g.Modes != nil {
		r, c := g.Modes.Dims()
		if c != nt {
			return errors.NewDimensionError("mixed.New", nt, c, 1)
		}
		if len(g.Levels) != r {
			return errors.NewDimensionError("mixed.New", r, len(g.Levels), 0)
		}
		if g.CondVar != nil {
			vr, vc := g.CondVar.Dims()
			if vr != r || vc != c {
				return errors.NewDimensionError("mixed.New", r*c, vr*vc, 0)
			}
		}
	}
	return nil
}

// ModelKind implements model.Fitted.
func (m *Model) ModelKind() model.Kind {
	return model.KindMixed
}

// FixedTerms returns the fixed-effect term names.
func (m *Model) FixedTerms() []string {
	return m.fixedTerms
}

// Groups returns the random-effect grouping factors in attachment order.
func (m *Model) Groups() []Group {
	return m.groups
}

// Sigma returns the residual standard deviation.
func (m *Model) Sigma() float64 {
	return m.sigma
}
