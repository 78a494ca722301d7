// Shared formatting helpers used by the family tidiers: long-format reshaping
// of a named matrix, diagnostic-column attachment, and one-row summary
// finishing.

package table

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/pkg/errors"
)

// Long reshapes a matrix with named rows into long format: one output row per
// matrix entry, with columns {labelName, indexName, valueName}. Row i of the
// matrix is labeled rowNames[i]; when rowNames is nil, labels default to the
// 1-based row number. The index column is the 1-based matrix column.
func Long(m mat.Matrix, rowNames []string, labelName, indexName, valueName string) (*Table, error) {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "table.Long")
	}
	if rowNames != nil && len(rowNames) != r {
		return nil, errors.NewDimensionError("table.Long", r, len(rowNames), 0)
	}

	labels := make([]string, 0, r*c)
	indices := make([]float64, 0, r*c)
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		label := strconv.Itoa(i + 1)
		if rowNames != nil {
			label = rowNames[i]
		}
		for j := 0; j < c; j++ {
			labels = append(labels, label)
			indices = append(indices, float64(j+1))
			values = append(values, m.At(i, j))
		}
	}

	out := New()
	if err := out.AddString(labelName, labels); err != nil {
		return nil, err
	}
	if err := out.AddNumeric(indexName, indices); err != nil {
		return nil, err
	}
	if err := out.AddNumeric(valueName, values); err != nil {
		return nil, err
	}
	return out, nil
}

// Diagnostic is one per-observation diagnostic column to attach to a dataset.
type Diagnostic struct {
	Name   string
	Values []float64
}

// WithDiagnostics appends diagnostic columns to data, one value per
// observation, preserving data's rows and order. A nil data table yields a
// table of only the diagnostics. Diagnostics with nil Values are skipped;
// callers emit a warning for those separately.
func WithDiagnostics(data *Table, diags []Diagnostic) (*Table, error) {
	out := New()
	if data != nil {
		var err error
		out, err = out.Bind(data)
		if err != nil {
			return nil, err
		}
	}
	for _, d := range diags {
		if d.Values == nil {
			continue
		}
		if err := out.AddNumeric(d.Name, d.Values); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// OneRow finishes a one-row summary table from parallel name/value slices.
// Missing statistics are represented as NaN.
func OneRow(names []string, values []float64) (*Table, error) {
	if len(names) != len(values) {
		return nil, errors.NewDimensionError("table.OneRow", len(names), len(values), 1)
	}
	out := New()
	for i, name := range names {
		if err := out.AddNumeric(name, []float64{values[i]}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
