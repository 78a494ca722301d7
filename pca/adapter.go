package pca

import (
	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/table"
)

// TidyTable implements model.Tidier for the generic entry points.
func (p *PCA) TidyTable(o model.TidyOptions) (*table.Table, error) {
	return Tidy(p, o.Mode)
}

// AugmentTable implements model.Augmenter.
func (p *PCA) AugmentTable(o model.AugmentOptions) (*table.Table, error) {
	return Augment(p, o.Data, o.NewData)
}
