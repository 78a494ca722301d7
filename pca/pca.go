// Package pca tidies fitted principal component analysis results. The
// eigen-decomposition itself is external: a PCA adapter is constructed from
// the pieces of an existing fit (rotation, per-component standard deviations,
// optionally scores and the centering/scaling applied before decomposition)
// and only reshapes or projects them.
package pca

import (
	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
)

// PCA is a fitted principal component analysis result.
type PCA struct {
	rotation *mat.Dense // variables×components loading matrix
	sdev     []float64  // per-component standard deviations
	scores   *mat.Dense // samples×components, nil when the fit retained none
	center   []float64  // per-variable centering, nil when not centered
	scale    []float64  // per-variable scaling, nil when not scaled
	rowNames []string
	varNames []string
}

// Option configures a PCA adapter.
type Option func(*PCA)

// WithScores attaches the samples×components score matrix.
func WithScores(scores *mat.Dense) Option {
	return func(p *PCA) { p.scores = scores }
}

// WithCenter attaches the per-variable centering subtracted before the
// decomposition.
func WithCenter(center []float64) Option {
	return func(p *PCA) { p.center = center }
}

// WithScale attaches the per-variable scaling divided out before the
// decomposition.
func WithScale(scale []float64) Option {
	return func(p *PCA) { p.scale = scale }
}

// WithRowNames attaches sample labels, used as row labels in tidy output.
func WithRowNames(names []string) Option {
	return func(p *PCA) { p.rowNames = names }
}

// WithVariableNames attaches variable labels.
func WithVariableNames(names []string) Option {
	return func(p *PCA) { p.varNames = names }
}

// New creates a PCA adapter from the pieces of an external fit. The rotation
// matrix and standard deviations are required; everything else is optional.
func New(rotation *mat.Dense, sdev []float64, opts ...Option) (*PCA, error) {
	if rotation == nil {
		return nil, errors.NewNotFittedError("pca", "rotation matrix")
	}
	nvar, ncomp := rotation.Dims()
	if len(sdev) != ncomp {
		return nil, errors.NewDimensionError("pca.New", ncomp, len(sdev), 1)
	}

	p := &PCA{rotation: rotation, sdev: sdev}
	for _, opt := range opts {
		opt(p)
	}

	if p.scores != nil {
		_, c := p.scores.Dims()
		if c != ncomp {
			return nil, errors.NewDimensionError("pca.New", ncomp, c, 1)
		}
	}
	if p.center != nil && len(p.center) != nvar {
		return nil, errors.NewDimensionError("pca.New", nvar, len(p.center), 1)
	}
	if p.scale != nil && len(p.scale) != nvar {
		return nil, errors.NewDimensionError("pca.New", nvar, len(p.scale), 1)
	}
	if p.rowNames != nil && p.scores != nil {
		r, _ := p.scores.Dims()
		if len(p.rowNames) != r {
			return nil, errors.NewDimensionError("pca.New", r, len(p.rowNames), 0)
		}
	}
	if p.varNames != nil && len(p.varNames) != nvar {
		return nil, errors.NewDimensionError("pca.New", nvar, len(p.varNames), 0)
	}
	return p, nil
}

// ModelKind implements model.Fitted.
func (p *PCA) ModelKind() model.Kind {
	return model.KindPCA
}

// NumComponents returns the number of principal components.
func (p *PCA) NumComponents() int {
	return len(p.sdev)
}

// NumVariables returns the number of original variables.
func (p *PCA) NumVariables() int {
	r, _ := p.rotation.Dims()
	return r
}

// Scores returns the samples×components score matrix, or nil.
func (p *PCA) Scores() *mat.Dense {
	return p.scores
}

// Loadings returns the variables×components rotation matrix.
func (p *PCA) Loadings() *mat.Dense {
	return p.rotation
}

// StdDevs returns the per-component standard deviations.
func (p *PCA) StdDevs() []float64 {
	return p.sdev
}

// Project maps observations onto the fitted component axes: the stored
// centering and scaling are applied, then the rotation. The input must have
// one column per original variable.
func (p *PCA) Project(data mat.Matrix) (*mat.Dense, error) {
	n, c := data.Dims()
	nvar, ncomp := p.rotation.Dims()
	if c != nvar {
		return nil, errors.NewDimensionError("pca.Project", nvar, c, 1)
	}

	prepared := mat.NewDense(n, nvar, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < nvar; j++ {
			v := data.At(i, j)
			if p.center != nil {
				v -= p.center[j]
			}
			if p.scale != nil {
				v /= p.scale[j]
			}
			prepared.Set(i, j, v)
		}
	}

	out := mat.NewDense(n, ncomp, nil)
	out.Mul(prepared, p.rotation)
	return out, nil
}
