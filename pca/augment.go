package pca

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// Augment returns one row per observation with the fitted component columns
// .fittedPC1..k. With newData, observations are projected onto the fitted
// axes through the stored centering, scaling and rotation; with data, the
// stored training scores are appended to the supplied columns; with neither,
// only the score columns are returned.
func Augment(p *PCA, data, newData *table.Table) (*table.Table, error) {
	if newData != nil {
		m, err := designFromTable(p, newData)
		if err != nil {
			return nil, err
		}
		projected, err := p.Project(m)
		if err != nil {
			return nil, err
		}
		fitted, err := table.FromMatrix(fittedNames(p.NumComponents()), projected)
		if err != nil {
			return nil, err
		}
		return newData.Bind(fitted)
	}

	if p.scores == nil {
		return nil, errors.NewNotFittedError("pca", "score matrix")
	}
	n, _ := p.scores.Dims()
	if data != nil && data.NumRows() != n {
		return nil, errors.NewDimensionError("pca.Augment", n, data.NumRows(), 0)
	}

	fitted := table.New()
	if p.rowNames != nil {
		if err := fitted.AddString(".rownames", p.rowNames); err != nil {
			return nil, err
		}
	}
	scoreCols, err := table.FromMatrix(fittedNames(p.NumComponents()), p.scores)
	if err != nil {
		return nil, err
	}
	fitted, err = fitted.Bind(scoreCols)
	if err != nil {
		return nil, err
	}
	return data.Bind(fitted)
}

func fittedNames(k int) []string {
	names := make([]string, k)
	for i := range names {
		names[i] = fmt.Sprintf(".fittedPC%d", i+1)
	}
	return names
}

// designFromTable extracts the observation matrix to project. When the fit
// carries variable names, columns are matched by name; otherwise the table's
// numeric columns are taken in order.
func designFromTable(p *PCA, data *table.Table) (*mat.Dense, error) {
	nvar := p.NumVariables()
	n := data.NumRows()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "pca.Augment")
	}

	cols := make([][]float64, 0, nvar)
	if p.varNames != nil {
		for _, name := range p.varNames {
			vals, ok := data.Numeric(name)
			if !ok {
				return nil, errors.NewValueError("pca.Augment",
					"new data is missing numeric column "+name)
			}
			cols = append(cols, vals)
		}
	} else {
		for _, name := range data.Names() {
			if vals, ok := data.Numeric(name); ok {
				cols = append(cols, vals)
			}
		}
		if len(cols) != nvar {
			return nil, errors.NewDimensionError("pca.Augment", nvar, len(cols), 1)
		}
	}

	out := mat.NewDense(n, nvar, nil)
	for j, col := range cols {
		for i := 0; i < n; i++ {
			out.Set(i, j, col[i])
		}
	}
	return out, nil
}
