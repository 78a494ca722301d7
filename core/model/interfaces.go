// Package model defines the boundary between externally fitted model objects
// and the tidiers. A fitted model enters the system as an opaque adapter that
// declares its family via Kind and exposes capability interfaces (Tidier,
// Augmenter, Glancer); the generic entry points select an implementation by
// these interfaces rather than by runtime reflection.
package model

import (
	"github.com/eipi10/broom/table"
)

// Kind discriminates the fitted-model families supported by the tidiers.
type Kind string

const (
	KindPCA   Kind = "pca"
	KindLM    Kind = "lm"
	KindMLM   Kind = "mlm" // multi-response linear model
	KindGLM   Kind = "glm"
	KindMixed Kind = "mixed"
)

// Fitted is implemented by every fitted-model adapter.
type Fitted interface {
	// ModelKind returns the family discriminator.
	ModelKind() Kind
}

// Interval is a single confidence interval.
type Interval struct {
	Low  float64
	High float64
}

// ProfileFunc computes profile-likelihood confidence intervals at the given
// level, one interval per parameter in the model's own parameter order.
// Profiling requires refitting machinery this library does not provide, so
// profile intervals are always delegated to the external fit through a
// ProfileFunc attached at construction time.
type ProfileFunc func(level float64) ([]Interval, error)

// TidyOptions is the option set accepted by the generic Tidy entry point.
// Each family reads the fields that apply to it and validates them before any
// computation; zero values select the documented defaults.
type TidyOptions struct {
	// Mode selects the PCA output shape: samples, variables or components
	// (aliases accepted). Empty means samples.
	Mode string

	// ConfInt requests confidence-interval columns.
	ConfInt bool
	// ConfLevel is the confidence level in (0,1). Zero means 0.95.
	ConfLevel float64
	// ConfMethod is "wald" or "profile". Empty means "wald".
	ConfMethod string

	// Transform back-transforms estimates through the model's inverse link,
	// rescaling standard errors by the delta method.
	Transform bool

	// Quick returns only terms and estimates, skipping inferential columns.
	Quick bool

	// Effects selects the mixed-model sub-tables: fixed, ran_pars, ran_modes.
	// Empty means fixed only.
	Effects []string
	// Component selects the mixed-model sub-model; only "cond" is supported.
	Component string
	// Scales is "sdcor" or "vcov" for mixed-model variance parameters.
	Scales string
	// RanPrefixSD and RanPrefixCor override the "sd"/"cor" (or "var"/"cov")
	// label prefixes for random-effect variance parameters.
	RanPrefixSD  string
	RanPrefixCor string
}

// AugmentOptions is the option set accepted by the generic Augment entry
// point.
type AugmentOptions struct {
	// Data is the original observation-level dataset to append diagnostics to.
	Data *table.Table
	// NewData switches to the new-observation path: predictions are computed
	// for these rows instead of the training rows.
	NewData *table.Table
	// PredictionType and ResidualType are passed through to the model's own
	// prediction and residual computation.
	PredictionType string
	ResidualType   string
	// SE requests standard errors of fitted values where optional.
	SE bool
}

// Tidier is the capability to produce a coefficient-level tidy table.
type Tidier interface {
	Fitted
	TidyTable(o TidyOptions) (*table.Table, error)
}

// Augmenter is the capability to produce an observation-level table.
type Augmenter interface {
	Fitted
	AugmentTable(o AugmentOptions) (*table.Table, error)
}

// Glancer is the capability to produce a one-row summary table.
type Glancer interface {
	Fitted
	GlanceTable() (*table.Table, error)
}
