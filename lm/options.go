package lm

import (
	"github.com/eipi10/broom/pkg/errors"
)

// Confidence-interval methods.
const (
	MethodWald    = "wald"
	MethodProfile = "profile"
)

// TidyOption configures the full coefficient tidy path.
type TidyOption func(*tidyConfig)

type tidyConfig struct {
	confInt    bool
	confLevel  float64
	confMethod string
	transform  bool
}

// WithConfInt requests confidence-interval columns.
func WithConfInt(confInt bool) TidyOption {
	return func(c *tidyConfig) { c.confInt = confInt }
}

// WithConfLevel sets the confidence level, default 0.95.
func WithConfLevel(level float64) TidyOption {
	return func(c *tidyConfig) { c.confLevel = level }
}

// WithConfMethod selects the interval method: MethodWald (symmetric, from
// standard errors) or MethodProfile (delegated to the fit's profiler).
func WithConfMethod(method string) TidyOption {
	return func(c *tidyConfig) { c.confMethod = method }
}

// WithTransform back-transforms estimates and interval bounds through the
// model's inverse link, rescaling standard errors by the delta method.
func WithTransform(transform bool) TidyOption {
	return func(c *tidyConfig) { c.transform = transform }
}

// WithExponentiate is the superseded name for WithTransform.
//
// Deprecated: use WithTransform. The supplied value is applied and a
// DeprecatedOptionWarning is emitted.
func WithExponentiate(exponentiate bool) TidyOption {
	return func(c *tidyConfig) {
		errors.Warn(errors.NewDeprecatedOptionWarning("exponentiate", "transform"))
		c.transform = exponentiate
	}
}

// newTidyConfig applies options and validates them before any computation.
func newTidyConfig(op string, opts []TidyOption) (*tidyConfig, error) {
	c := &tidyConfig{
		confLevel:  0.95,
		confMethod: MethodWald,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.confLevel <= 0 || c.confLevel >= 1 {
		return nil, errors.NewInvalidArgumentError(op, "conf.level", c.confLevel,
			"must be strictly between 0 and 1")
	}
	switch c.confMethod {
	case MethodWald, MethodProfile:
	default:
		return nil, errors.NewInvalidArgumentError(op, "conf.method", c.confMethod,
			"expected wald or profile")
	}
	return c, nil
}
