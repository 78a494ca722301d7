package mixed

import (
	"github.com/eipi10/broom/pkg/errors"
)

// Effect names.
const (
	EffectFixed    = "fixed"
	EffectRanPars  = "ran_pars"
	EffectRanModes = "ran_modes"
)

// Variance-parameter scales.
const (
	ScaleSDCor = "sdcor"
	ScaleVCov  = "vcov"
)

// Confidence-interval methods.
const (
	MethodWald    = "wald"
	MethodProfile = "profile"
)

// Sub-model components. Only the conditional model is supported.
const ComponentCond = "cond"

// TidyOption configures Tidy.
type TidyOption func(*tidyConfig)

type tidyConfig struct {
	effects    []string
	component  string
	scales     string
	prefixSD   string
	prefixCor  string
	confInt    bool
	confLevel  float64
	confMethod string
}

// WithEffects selects which sub-tables to produce, drawn from EffectFixed,
// EffectRanPars and EffectRanModes. The superseded name "random" is accepted
// for EffectRanModes with a DeprecatedOptionWarning.
func WithEffects(effects ...string) TidyOption {
	return func(c *tidyConfig) { c.effects = effects }
}

// WithComponent selects the sub-model; only ComponentCond is supported.
func WithComponent(component string) TidyOption {
	return func(c *tidyConfig) { c.component = component }
}

// WithScales selects the variance-parameter scale: ScaleSDCor (standard
// deviations and correlations, the default) or ScaleVCov (variances and
// covariances).
func WithScales(scales string) TidyOption {
	return func(c *tidyConfig) { c.scales = scales }
}

// WithRanPrefix overrides the label prefixes for random-effect variance
// parameters (default "sd"/"cor", or "var"/"cov" on the vcov scale).
func WithRanPrefix(sd, cor string) TidyOption {
	return func(c *tidyConfig) {
		c.prefixSD = sd
		c.prefixCor = cor
	}
}

// WithConfInt requests confidence-interval columns.
func WithConfInt(confInt bool) TidyOption {
	return func(c *tidyConfig) { c.confInt = confInt }
}

// WithConfLevel sets the confidence level, default 0.95.
func WithConfLevel(level float64) TidyOption {
	return func(c *tidyConfig) { c.confLevel = level }
}

// WithConfMethod selects the interval method. Profile is accepted for fixed
// terms and variance parameters (through the fit's profilers); conditional
// modes support Wald only.
func WithConfMethod(method string) TidyOption {
	return func(c *tidyConfig) { c.confMethod = method }
}

// newTidyConfig applies options and validates everything before any
// computation.
func newTidyConfig(opts []TidyOption) (*tidyConfig, error) {
	c := &tidyConfig{
		effects:    []string{EffectFixed},
		component:  ComponentCond,
		scales:     ScaleSDCor,
		confLevel:  0.95,
		confMethod: MethodWald,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.component != ComponentCond {
		return nil, errors.NewUnsupportedOperationError("mixed.Tidy", "mixed",
			"only the conditional (cond) component is supported, got "+c.component)
	}
	switch c.scales {
	case ScaleSDCor, ScaleVCov:
	default:
		return nil, errors.NewInvalidArgumentError("mixed.Tidy", "scales", c.scales,
			"expected sdcor or vcov")
	}
	if c.confLevel <= 0 || c.confLevel >= 1 {
		return nil, errors.NewInvalidArgumentError("mixed.Tidy", "conf.level", c.confLevel,
			"must be strictly between 0 and 1")
	}
	switch c.confMethod {
	case MethodWald, MethodProfile:
	default:
		return nil, errors.NewInvalidArgumentError("mixed.Tidy", "conf.method", c.confMethod,
			"expected wald or profile")
	}

	normalized := make([]string, 0, len(c.effects))
	seen := make(map[string]bool)
	for _, e := range c.effects {
		if e == "random" {
			errors.Warn(errors.NewDeprecatedOptionWarning("effects=random", "effects=ran_modes"))
			e = EffectRanModes
		}
		switch e {
		case EffectFixed, EffectRanPars, EffectRanModes:
		default:
			return nil, errors.NewInvalidArgumentError("mixed.Tidy", "effects", e,
				"expected fixed, ran_pars or ran_modes")
		}
		if !seen[e] {
			seen[e] = true
			normalized = append(normalized, e)
		}
	}
	if len(normalized) == 0 {
		return nil, errors.NewInvalidArgumentError("mixed.Tidy", "effects", c.effects,
			"at least one effect must be requested")
	}
	c.effects = normalized

	if c.prefixSD == "" {
		c.prefixSD = "sd"
		if c.scales == ScaleVCov {
			c.prefixSD = "var"
		}
	}
	if c.prefixCor == "" {
		c.prefixCor = "cor"
		if c.scales == ScaleVCov {
			c.prefixCor = "cov"
		}
	}
	return c, nil
}

func (c *tidyConfig) wants(effect string) bool {
	for _, e := range c.effects {
		if e == effect {
			return true
		}
	}
	return false
}
