package lm

import (
	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/table"
)

// Bridges to the generic entry points: translate the unified option sets into
// this package's options and materialize typed results as tables.

func tidyOptionsFrom(o model.TidyOptions) []TidyOption {
	opts := []TidyOption{
		WithConfInt(o.ConfInt),
		WithTransform(o.Transform),
	}
	if o.ConfLevel != 0 {
		opts = append(opts, WithConfLevel(o.ConfLevel))
	}
	if o.ConfMethod != "" {
		opts = append(opts, WithConfMethod(o.ConfMethod))
	}
	return opts
}

func augmentOptionsFrom(o model.AugmentOptions) []AugmentOption {
	return []AugmentOption{
		WithAugmentData(o.Data),
		WithNewData(o.NewData),
		WithPredictionType(o.PredictionType),
		WithResidualType(o.ResidualType),
	}
}

func quickTable(rows []QuickCoef) (*table.Table, error) {
	terms := make([]string, len(rows))
	est := make([]float64, len(rows))
	for i, r := range rows {
		terms[i] = r.Term
		est[i] = r.Estimate
	}
	out := table.New()
	if err := out.AddString("term", terms); err != nil {
		return nil, err
	}
	if err := out.AddNumeric("estimate", est); err != nil {
		return nil, err
	}
	return out, nil
}

// TidyTable implements model.Tidier.
func (m *Model) TidyTable(o model.TidyOptions) (*table.Table, error) {
	if o.Quick {
		return quickTable(m.TidyQuick())
	}
	ct, err := m.Tidy(tidyOptionsFrom(o)...)
	if err != nil {
		return nil, err
	}
	return ct.Table()
}

// AugmentTable implements model.Augmenter.
func (m *Model) AugmentTable(o model.AugmentOptions) (*table.Table, error) {
	return m.Augment(augmentOptionsFrom(o)...)
}

// GlanceTable implements model.Glancer.
func (m *Model) GlanceTable() (*table.Table, error) {
	g, err := m.Glance()
	if err != nil {
		return nil, err
	}
	return g.Table()
}

// TidyTable implements model.Tidier.
func (g *GLM) TidyTable(o model.TidyOptions) (*table.Table, error) {
	if o.Quick {
		return quickTable(g.TidyQuick())
	}
	ct, err := g.Tidy(tidyOptionsFrom(o)...)
	if err != nil {
		return nil, err
	}
	return ct.Table()
}

// AugmentTable implements model.Augmenter.
func (g *GLM) AugmentTable(o model.AugmentOptions) (*table.Table, error) {
	return g.Augment(augmentOptionsFrom(o)...)
}

// GlanceTable implements model.Glancer.
func (g *GLM) GlanceTable() (*table.Table, error) {
	gl, err := g.Glance()
	if err != nil {
		return nil, err
	}
	return gl.Table()
}
