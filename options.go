package broom

import (
	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// Option configures the generic Tidy and Augment entry points. Each family
// reads the options that apply to it; validation happens inside the family
// tidier, before any computation.
type Option func(*options)

type options struct {
	tidy    model.TidyOptions
	augment model.AugmentOptions
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMode selects the PCA output shape: samples, variables or components
// (aliases accepted).
func WithMode(mode string) Option {
	return func(o *options) { o.tidy.Mode = mode }
}

// WithQuick returns only terms and estimates, skipping inferential columns.
func WithQuick(quick bool) Option {
	return func(o *options) { o.tidy.Quick = quick }
}

// WithConfInt requests confidence-interval columns.
func WithConfInt(confInt bool) Option {
	return func(o *options) { o.tidy.ConfInt = confInt }
}

// WithConfLevel sets the confidence level, default 0.95.
func WithConfLevel(level float64) Option {
	return func(o *options) { o.tidy.ConfLevel = level }
}

// WithConfMethod selects "wald" or "profile" intervals.
func WithConfMethod(method string) Option {
	return func(o *options) { o.tidy.ConfMethod = method }
}

// WithTransform back-transforms estimates and interval bounds through the
// model's inverse link, rescaling standard errors by the delta method.
func WithTransform(transform bool) Option {
	return func(o *options) { o.tidy.Transform = transform }
}

// WithExponentiate is the superseded name for WithTransform.
//
// Deprecated: use WithTransform. The supplied value is applied and a
// DeprecatedOptionWarning is emitted.
func WithExponentiate(exponentiate bool) Option {
	return func(o *options) {
		errors.Warn(errors.NewDeprecatedOptionWarning("exponentiate", "transform"))
		o.tidy.Transform = exponentiate
	}
}

// WithEffects selects the mixed-model sub-tables: fixed, ran_pars, ran_modes.
func WithEffects(effects ...string) Option {
	return func(o *options) { o.tidy.Effects = effects }
}

// WithComponent selects the mixed-model sub-model; only "cond" is supported.
func WithComponent(component string) Option {
	return func(o *options) { o.tidy.Component = component }
}

// WithScales selects the mixed-model variance-parameter scale, "sdcor" or
// "vcov".
func WithScales(scales string) Option {
	return func(o *options) { o.tidy.Scales = scales }
}

// WithRanPrefix overrides the label prefixes for random-effect variance
// parameters.
func WithRanPrefix(sd, cor string) Option {
	return func(o *options) {
		o.tidy.RanPrefixSD = sd
		o.tidy.RanPrefixCor = cor
	}
}

// WithData supplies the original observation-level dataset to Augment.
func WithData(data *table.Table) Option {
	return func(o *options) { o.augment.Data = data }
}

// WithNewData switches Augment to the new-observation path.
func WithNewData(newData *table.Table) Option {
	return func(o *options) { o.augment.NewData = newData }
}

// WithPredictionType selects among the model's prediction variants.
func WithPredictionType(t string) Option {
	return func(o *options) { o.augment.PredictionType = t }
}

// WithResidualType selects among the model's residual variants.
func WithResidualType(t string) Option {
	return func(o *options) { o.augment.ResidualType = t }
}

// WithSE requests standard errors of fitted values where optional.
func WithSE(se bool) Option {
	return func(o *options) { o.augment.SE = se }
}
