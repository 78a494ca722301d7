package mixed

import (
	"math"

	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// AugmentOption configures Augment.
type AugmentOption func(*augmentConfig)

type augmentConfig struct {
	data      *table.Table
	newData   *table.Table
	predType  string
	residType string
	se        bool
}

// WithData supplies the original observation-level dataset.
func WithData(data *table.Table) AugmentOption {
	return func(c *augmentConfig) { c.data = data }
}

// WithNewData switches to the new-observation path, delegated to the fit's
// prediction machinery.
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

// WithSE requests standard errors of the fitted values.
func WithSE(se bool) AugmentOption {
	return func(c *augmentConfig) { c.se = se }
}

// Augment returns one row per observation with fitted value, residual and the
// fixed-effects-only fitted value, optionally with the fitted value's
// standard error.
func (m *Model) Augment(opts ...AugmentOption) (*table.Table, error) {
	cfg := &augmentConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	switch cfg.predType {
	case "", "response":
	default:
		return nil, errors.NewInvalidArgumentError("mixed.Augment", "prediction.type",
			cfg.predType, "this adapter predicts on the response scale only")
	}
	switch cfg.residType {
	case "", "response":
	default:
		return nil, errors.NewInvalidArgumentError("mixed.Augment", "residual.type",
			cfg.residType, "this adapter carries response-scale residuals only")
	}

	if cfg.newData != nil {
		if m.predictFn == nil {
			return nil, errors.NewUnsupportedOperationError("mixed.Augment", "mixed",
				"prediction on new data requires the external fit's prediction machinery")
		}
		fitted, fixed, err := m.predictFn(cfg.newData, cfg.predType)
		if err != nil {
			return nil, err
		}
		return table.WithDiagnostics(cfg.newData, []table.Diagnostic{
			{Name: ".fitted", Values: fitted},
			{Name: ".fixed", Values: fixed},
		})
	}

	if m.fitted == nil || m.resid == nil || m.fittedFixed == nil {
		return nil, errors.NewNotFittedError("mixed", "per-observation fitted values and residuals")
	}
	if cfg.data != nil && cfg.data.NumRows() != len(m.fitted) {
		return nil, errors.NewDimensionError("mixed.Augment", len(m.fitted), cfg.data.NumRows(), 0)
	}

	var seFit []float64
	if cfg.se {
		if m.seFit != nil {
			seFit = m.seFit
		} else {
			errors.Warn(errors.NewMissingDiagnosticWarning("mixed.Augment", ".se.fit", "mixed"))
		}
	}

	return table.WithDiagnostics(cfg.data, []table.Diagnostic{
		{Name: ".fitted", Values: m.fitted},
		{Name: ".resid", Values: m.resid},
		{Name: ".fixed", Values: m.fittedFixed},
		{Name: ".se.fit", Values: seFit},
	})
}

// Glance summarizes a mixed fit in one row.
type Glance struct {
	Sigma    float64
	LogLik   float64
	AIC      float64
	BIC      float64
	Deviance float64
}

// Glance returns the one-row summary of the fit.
func (m *Model) Glance() (*Glance, error) {
	if math.IsNaN(m.sigma) && math.IsNaN(m.logLik) {
		return nil, errors.NewNotFittedError("mixed", "fit statistics")
	}
	return &Glance{
		Sigma:    m.sigma,
		LogLik:   m.logLik,
		AIC:      m.aic,
		BIC:      m.bic,
		Deviance: m.deviance,
	}, nil
}

// Table materializes the one-row summary.
func (g *Glance) Table() (*table.Table, error) {
	return table.OneRow(
		[]string{"sigma", "logLik", "AIC", "BIC", "deviance"},
		[]float64{g.Sigma, g.LogLik, g.AIC, g.BIC, g.Deviance},
	)
}
