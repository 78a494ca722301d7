package mixed

import (
	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/table"
)

// TidyTable implements model.Tidier.
func (m *Model) TidyTable(o model.TidyOptions) (*table.Table, error) {
	opts := []TidyOption{WithConfInt(o.ConfInt)}
	if len(o.Effects) > 0 {
		opts = append(opts, WithEffects(o.Effects...))
	}
	if o.Component != "" {
		opts = append(opts, WithComponent(o.Component))
	}
	if o.Scales != "" {
		opts = append(opts, WithScales(o.Scales))
	}
	if o.RanPrefixSD != "" || o.RanPrefixCor != "" {
		opts = append(opts, WithRanPrefix(o.RanPrefixSD, o.RanPrefixCor))
	}
	if o.ConfLevel != 0 {
		opts = append(opts, WithConfLevel(o.ConfLevel))
	}
	if o.ConfMethod != "" {
		opts = append(opts, WithConfMethod(o.ConfMethod))
	}
	tt, err := m.Tidy(opts...)
	if err != nil {
		return nil, err
	}
	return tt.Table()
}

// AugmentTable implements model.Augmenter.
func (m *Model) AugmentTable(o model.AugmentOptions) (*table.Table, error) {
	return m.Augment(
		WithData(o.Data),
		WithNewData(o.NewData),
		WithPredictionType(o.PredictionType),
		WithResidualType(o.ResidualType),
		WithSE(o.SE),
	)
}

// GlanceTable implements model.Glancer.
func (m *Model) GlanceTable() (*table.Table, error) {
	g, err := m.Glance()
	if err != nil {
		return nil, err
	}
	return g.Table()
}
