package lm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// GLM is a fitted generalized linear model, single response. The coefficient
// standard errors come from the external fit's covariance; everything else is
// optional and unlocks the corresponding operations (design matrix and
// working weights for leverage, response vector for residuals, deviance
// bookkeeping for the one-row summary).
type GLM struct {
	terms        []string
	coef         []float64
	se           []float64
	link         Link
	family       string
	responseName string

	x       *mat.Dense
	y       []float64
	eta     []float64 // linear predictors
	weights []float64 // IRLS working weights
	vcov    *mat.Dense
	resid   map[string][]float64

	deviance     float64
	nullDeviance float64
	logLik       float64
	profiler     model.ProfileFunc

	n      int
	fitted []float64 // response scale
	hat    []float64
}

// GLMOption configures a GLM adapter.
type GLMOption func(*GLM)

// WithGLMData attaches the design matrix and response vector.
func WithGLMData(x *mat.Dense, y []float64) GLMOption {
	return func(g *GLM) {
		g.x = x
		g.y = y
	}
}

// WithLinearPredictors attaches the fit's linear predictors. Without them the
// adapter derives eta from the design matrix.
func WithLinearPredictors(eta []float64) GLMOption {
	return func(g *GLM) { g.eta = eta }
}

// WithWorkingWeights attaches the final IRLS working weights, needed for the
// hat diagonal.
func WithWorkingWeights(w []float64) GLMOption {
	return func(g *GLM) { g.weights = w }
}

// WithVcov attaches the coefficient covariance matrix, needed for standard
// errors of fitted values.
func WithVcov(vcov *mat.Dense) GLMOption {
	return func(g *GLM) { g.vcov = vcov }
}

// WithResiduals attaches a residual vector of the given kind, e.g.
// "deviance" or "pearson". Response residuals are derived when the response
// is attached.
func WithResiduals(kind string, values []float64) GLMOption {
	return func(g *GLM) {
		if g.resid == nil {
			g.resid = make(map[string][]float64)
		}
		g.resid[kind] = values
	}
}

// WithDeviance attaches the residual and null deviance.
func WithDeviance(deviance, nullDeviance float64) GLMOption {
	return func(g *GLM) {
		g.deviance = deviance
		g.nullDeviance = nullDeviance
	}
}

// WithLogLik attaches the maximized log-likelihood.
func WithLogLik(logLik float64) GLMOption {
	return func(g *GLM) { g.logLik = logLik }
}

// WithFamily labels the model family, e.g. "binomial".
func WithFamily(family string) GLMOption {
	return func(g *GLM) { g.family = family }
}

// WithGLMResponseName names the response column, used to compute residuals
// against new data.
func WithGLMResponseName(name string) GLMOption {
	return func(g *GLM) { g.responseName = name }
}

// WithGLMProfiler attaches the external fit's profile-likelihood interval
// routine.
func WithGLMProfiler(fn model.ProfileFunc) GLMOption {
	return func(g *GLM) { g.profiler = fn }
}

// NewGLM creates a generalized-linear-model adapter from an external fit's
// terms, coefficient values, standard errors and link.
func NewGLM(terms []string, coef, se []float64, link Link, opts ...GLMOption) (*GLM, error) {
	if len(coef) == 0 {
		return nil, errors.NewNotFittedError("glm", "coefficient values")
	}
	if len(terms) != len(coef) {
		return nil, errors.NewDimensionError("lm.NewGLM", len(coef), len(terms), 0)
	}
	if len(se) != len(coef) {
		return nil, errors.NewDimensionError("lm.NewGLM", len(coef), len(se), 0)
	}
	if link.Inverse == nil || link.MuEta == nil {
		return nil, errors.NewNotFittedError("glm", "link function")
	}
	g := &GLM{
		terms:    terms,
		coef:     coef,
		se:       se,
		link:     link,
		deviance: math.NaN(), nullDeviance: math.NaN(), logLik: math.NaN(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if err := g.derive(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GLM) derive() error {
	p := len(g.coef)
	if g.x != nil {
		n, c := g.x.Dims()
		if c != p {
			return errors.NewDimensionError("lm.NewGLM", p, c, 1)
		}
		g.n = n
		if g.eta == nil {
			coefVec := mat.NewVecDense(p, g.coef)
			eta := mat.NewVecDense(n, nil)
			eta.MulVec(g.x, coefVec)
			g.eta = eta.RawVector().Data
		}
	} else if g.eta != nil {
		g.n = len(g.eta)
	} else if g.y != nil {
		g.n = len(g.y)
	}

	if g.eta != nil {
		g.fitted = make([]float64, len(g.eta))
		for i, e := range g.eta {
			g.fitted[i] = g.link.Inverse(e)
		}
	}
	if g.y != nil {
		if g.fitted != nil && len(g.y) != len(g.fitted) {
			return errors.NewDimensionError("lm.NewGLM", len(g.fitted), len(g.y), 0)
		}
		if g.fitted != nil {
			rr := make([]float64, len(g.y))
			for i := range g.y {
				rr[i] = g.y[i] - g.fitted[i]
			}
			if g.resid == nil {
				g.resid = make(map[string][]float64)
			}
			if _, ok := g.resid["response"]; !ok {
				g.resid["response"] = rr
			}
		}
	}

	// Hat diagonal from the weighted cross-product, when the fit supplied
	// its working weights.
	if g.x != nil && g.weights != nil {
		if len(g.weights) != g.n {
			return errors.NewDimensionError("lm.NewGLM", g.n, len(g.weights), 0)
		}
		g.hat = g.weightedHat()
	}
	return nil
}

// weightedHat computes diag(W^1/2 X (X'WX)^-1 X' W^1/2).
func (g *GLM) weightedHat() []float64 {
	n, p := g.x.Dims()
	wx := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		sw := math.Sqrt(g.weights[i])
		for j := 0; j < p; j++ {
			wx.Set(i, j, sw*g.x.At(i, j))
		}
	}
	var xtwx mat.Dense
	xtwx.Mul(wx.T(), wx)
	var inv mat.Dense
	if err := inv.Inverse(&xtwx); err != nil {
		return nil
	}
	hat := make([]float64, n)
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, wx)
		var h float64
		for a := 0; a < p; a++ {
			for b := 0; b < p; b++ {
				h += row[a] * inv.At(a, b) * row[b]
			}
		}
		hat[i] = h
	}
	return hat
}

// ModelKind implements model.Fitted.
func (g *GLM) ModelKind() model.Kind {
	return model.KindGLM
}

// Terms returns the coefficient names in model order.
func (g *GLM) Terms() []string {
	return g.terms
}

// Link returns the model's link function.
func (g *GLM) Link() Link {
	return g.link
}

// NumObs returns the number of training observations, or 0 when unknown.
func (g *GLM) NumObs() int {
	return g.n
}

// TidyQuick returns only terms and estimates.
func (g *GLM) TidyQuick() []QuickCoef {
	return assembleQuickRows(g.terms, g.coef)
}

// Tidy extracts the coefficient table. The test statistic is the Wald z on
// the link scale; with WithTransform, estimates and interval bounds are
// back-transformed through the inverse link and standard errors rescaled by
// the delta method (first order, evaluated at the untransformed estimate).
func (g *GLM) Tidy(opts ...TidyOption) (*CoefTable, error) {
	cfg, err := newTidyConfig("lm.GLM.Tidy", opts)
	if err != nil {
		return nil, err
	}

	transform := cfg.transform
	if transform && g.link.IsIdentity() {
		errors.Warn(errors.NewNoOpTransformWarning("lm.GLM.Tidy", "model has identity link"))
		transform = false
	}

	var intervals []model.Interval
	if cfg.confInt {
		intervals, err = g.confInt(cfg.confLevel, cfg.confMethod)
		if err != nil {
			return nil, err
		}
	}

	out := &CoefTable{HasConfInt: cfg.confInt}
	for i, term := range g.terms {
		est := g.coef[i]
		se := g.se[i]
		z := est / se
		row := Coefficient{
			Term:      term,
			Estimate:  est,
			StdError:  se,
			Statistic: z,
			PValue:    2 * stdNormal.Survival(math.Abs(z)),
		}
		if cfg.confInt {
			row.ConfLow = intervals[i].Low
			row.ConfHigh = intervals[i].High
		}
		if transform {
			// Delta method: the rescaled standard error uses the derivative
			// of the inverse link at the pre-transform estimate.
			row.StdError = math.Abs(g.link.MuEta(est)) * se
			row.Estimate = g.link.Inverse(est)
			if cfg.confInt {
				row.ConfLow = g.link.Inverse(row.ConfLow)
				row.ConfHigh = g.link.Inverse(row.ConfHigh)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func (g *GLM) confInt(level float64, method string) ([]model.Interval, error) {
	switch method {
	case MethodProfile:
		if g.profiler == nil {
			return nil, errors.NewUnsupportedOperationError("lm.GLM.Tidy", "glm",
				"profile intervals require a profiler from the external fit")
		}
		return g.profiler(level)
	default:
		q := stdNormal.Quantile(1 - (1-level)/2)
		intervals := make([]model.Interval, len(g.coef))
		for i, est := range g.coef {
			intervals[i] = model.Interval{Low: est - q*g.se[i], High: est + q*g.se[i]}
		}
		return intervals, nil
	}
}

// predict returns fitted values for the rows of newX on the requested scale
// ("link" or "response"), with standard errors when the coefficient
// covariance is attached.
func (g *GLM) predict(newX *mat.Dense, predType string) (fit, seFit []float64, err error) {
	n, c := newX.Dims()
	p := len(g.coef)
	if c != p {
		return nil, nil, errors.NewDimensionError("lm.GLM.predict", p, c, 1)
	}
	switch predType {
	case "", PredictResponse, PredictLink:
	default:
		return nil, nil, errors.NewInvalidArgumentError("lm.GLM.predict", "prediction.type",
			predType, "expected response or link")
	}

	coefVec := mat.NewVecDense(p, g.coef)
	etaVec := mat.NewVecDense(n, nil)
	etaVec.MulVec(newX, coefVec)
	eta := etaVec.RawVector().Data

	fit = make([]float64, n)
	if g.vcov != nil {
		seFit = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		var seLink float64
		if g.vcov != nil {
			row := mat.Row(nil, i, newX)
			var h float64
			for a := 0; a < p; a++ {
				for b := 0; b < p; b++ {
					h += row[a] * g.vcov.At(a, b) * row[b]
				}
			}
			seLink = math.Sqrt(h)
		}
		if predType == PredictLink {
			fit[i] = eta[i]
			if seFit != nil {
				seFit[i] = seLink
			}
		} else {
			fit[i] = g.link.Inverse(eta[i])
			if seFit != nil {
				seFit[i] = math.Abs(g.link.MuEta(eta[i])) * seLink
			}
		}
	}
	return fit, seFit, nil
}

// residuals returns the stored residual vector of the given kind.
func (g *GLM) residuals(kind string) ([]float64, bool) {
	if kind == "" {
		// Prefer deviance residuals when the fit supplied them.
		if r, ok := g.resid[ResidDeviance]; ok {
			return r, true
		}
		kind = ResidResponse
	}
	r, ok := g.resid[kind]
	return r, ok
}

// GlanceGLM summarizes a generalized linear fit in one row: null deviance and
// its degrees of freedom, log-likelihood, AIC, BIC, deviance and residual
// degrees of freedom.
type GLMGlance struct {
	NullDeviance float64
	DFNull       float64
	LogLik       float64
	AIC          float64
	BIC          float64
	Deviance     float64
	DFResidual   float64
}

// Glance returns the one-row summary of the fit.
func (g *GLM) Glance() (*GLMGlance, error) {
	if g.n == 0 {
		return nil, errors.NewNotFittedError("glm", "observation-level data")
	}
	p := float64(len(g.coef))
	n := float64(g.n)
	out := &GLMGlance{
		NullDeviance: g.nullDeviance,
		DFNull:       n - 1,
		LogLik:       g.logLik,
		AIC:          math.NaN(),
		BIC:          math.NaN(),
		Deviance:     g.deviance,
		DFResidual:   n - p,
	}
	if !math.IsNaN(g.logLik) {
		out.AIC = -2*g.logLik + 2*p
		out.BIC = -2*g.logLik + math.Log(n)*p
	}
	return out, nil
}

// Table materializes the one-row summary.
func (gl *GLMGlance) Table() (*table.Table, error) {
	return table.OneRow(
		[]string{"null.deviance", "df.null", "logLik", "AIC", "BIC", "deviance", "df.residual"},
		[]float64{gl.NullDeviance, gl.DFNull, gl.LogLik, gl.AIC, gl.BIC, gl.Deviance, gl.DFResidual},
	)
}
