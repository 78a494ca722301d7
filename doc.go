// Package broom converts the output of fitted statistical models into
// uniformly structured tables.
//
// The computational work (model fitting, eigen-decomposition, profile
// likelihoods) belongs to external libraries; broom's job is reshaping.
// A fitted model enters the system as an adapter built from the pieces of an
// existing fit and three operations apply to it:
//
//   - Tidy: component-level results, one row per coefficient, principal
//     component, or random-effect parameter
//   - Augment: observation-level results, the original (or new) data with
//     diagnostic columns appended
//   - Glance: a one-row goodness-of-fit summary
//
// # Model families
//
// Three families are supported, one package each:
//
//   - pca: principal component analysis results (scores, loadings,
//     variance explained, projection of new data)
//   - lm: linear and generalized linear models (coefficient tables with
//     optional confidence intervals and link back-transformation, hat
//     values, Cook's distance, F tests)
//   - mixed: mixed-effects models (fixed effects, variance/covariance
//     parameters, conditional modes)
//
// The typed APIs in those packages are the primary surface. This root
// package adds generic entry points that dispatch on the capability
// interfaces in core/model, for callers that handle several families
// uniformly:
//
//	fit, _ := lm.New(terms, coef, lm.WithData(x, y))
//	tbl, err := broom.Tidy(fit, broom.WithConfInt(true))
//
// # Errors and warnings
//
// Option validation happens before any computation and aborts the whole
// call; no partial tables are returned. Non-fatal conditions (deprecated
// option names, a back-transform on an identity link, diagnostics a model
// variant cannot provide) are reported through pkg/errors.Warn alongside a
// normally completed result.
package broom
