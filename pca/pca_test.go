package pca

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// twoComponentFit builds a small PCA adapter with a known orthonormal
// rotation and three scored observations.
func twoComponentFit(t *testing.T) *PCA {
	t.Helper()
	s := math.Sqrt(0.5)
	rotation := mat.NewDense(2, 2, []float64{
		s, s,
		s, -s,
	})
	scores := mat.NewDense(3, 2, []float64{
		1.0, 0.1,
		-0.5, 0.2,
		2.0, -0.3,
	})
	p, err := New(rotation, []float64{2, 1},
		WithScores(scores),
		WithCenter([]float64{1, 1}),
		WithRowNames([]string{"a", "b", "c"}),
		WithVariableNames([]string{"x1", "x2"}),
	)
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (*PCA, error)
	}{
		{
			name: "nil rotation",
			fn: func() (*PCA, error) {
				return New(nil, []float64{1})
			},
		},
		{
			name: "sdev length mismatch",
			fn: func() (*PCA, error) {
				return New(mat.NewDense(2, 2, nil), []float64{1})
			},
		},
		{
			name: "center length mismatch",
			fn: func() (*PCA, error) {
				return New(mat.NewDense(2, 2, nil), []float64{1, 1}, WithCenter([]float64{0}))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.Error(t, err)
		})
	}
}

func TestTidyModeValidation(t *testing.T) {
	p := twoComponentFit(t)

	_, err := Tidy(p, "bogus")
	require.Error(t, err)
	var invalid *errors.InvalidArgumentError
	assert.True(t, errors.As(err, &invalid))

	for _, alias := range []string{"", "samples", "scores", "u", "x"} {
		tbl, err := Tidy(p, alias)
		require.NoError(t, err, "alias %q", alias)
		assert.Equal(t, []string{"row", "PC", "value"}, tbl.Names())
	}
	for _, alias := range []string{"variables", "loadings", "rotation", "v"} {
		tbl, err := Tidy(p, alias)
		require.NoError(t, err, "alias %q", alias)
		assert.Equal(t, []string{"column", "PC", "value"}, tbl.Names())
	}
	for _, alias := range []string{"components", "pcs", "d", "eigenvalues"} {
		tbl, err := Tidy(p, alias)
		require.NoError(t, err, "alias %q", alias)
		assert.Equal(t, []string{"PC", "std.dev", "percent", "cumulative"}, tbl.Names())
	}
}

func TestTidySamplesShape(t *testing.T) {
	p := twoComponentFit(t)
	tbl, err := Tidy(p, ModeSamples)
	require.NoError(t, err)

	// One row per (observation, component) pair.
	assert.Equal(t, 3*2, tbl.NumRows())

	rows, _ := tbl.Strings("row")
	idx, _ := tbl.Numeric("PC")
	perEntity := make(map[string][]float64)
	for i, r := range rows {
		perEntity[r] = append(perEntity[r], idx[i])
	}
	for entity, indices := range perEntity {
		assert.Equal(t, []float64{1, 2}, indices, "entity %s", entity)
	}

	vals, _ := tbl.Numeric("value")
	assert.Equal(t, 1.0, vals[0])
	assert.Equal(t, 0.1, vals[1])
}

func TestTidyComponentsVariance(t *testing.T) {
	p := twoComponentFit(t)
	rows := TidyComponents(p)
	require.Len(t, rows, 2)

	// sd² shares: 4/5 and 1/5.
	assert.InDelta(t, 0.8, rows[0].Percent, 1e-12)
	assert.InDelta(t, 0.2, rows[1].Percent, 1e-12)
	assert.InDelta(t, 0.8, rows[0].Cumulative, 1e-12)
	assert.InDelta(t, 1.0, rows[1].Cumulative, 1e-12)
}

func TestTidyComponentsCumulativeProperty(t *testing.T) {
	// 50 observations, 4 variables: exactly 4 component rows, cumulative
	// non-decreasing and reaching 1 at the last row.
	rotation := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		rotation.Set(i, i, 1)
	}
	scores := mat.NewDense(50, 4, nil)
	p, err := New(rotation, []float64{2, 1, 0.5, 0.25}, WithScores(scores))
	require.NoError(t, err)

	rows := TidyComponents(p)
	require.Len(t, rows, 4)
	prev := 0.0
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Cumulative, prev)
		prev = r.Cumulative
	}
	assert.InDelta(t, 1.0, rows[3].Cumulative, 1e-12)

	tbl, err := Tidy(p, ModeSamples)
	require.NoError(t, err)
	assert.Equal(t, 50*4, tbl.NumRows())
}

func TestProject(t *testing.T) {
	p := twoComponentFit(t)
	s := math.Sqrt(0.5)

	newObs := mat.NewDense(1, 2, []float64{3, 2})
	projected, err := p.Project(newObs)
	require.NoError(t, err)

	// Centered to (2, 1): PC1 = 3/√2, PC2 = 1/√2.
	assert.InDelta(t, 3*s, projected.At(0, 0), 1e-12)
	assert.InDelta(t, 1*s, projected.At(0, 1), 1e-12)

	_, err = p.Project(mat.NewDense(1, 3, nil))
	assert.Error(t, err, "wrong variable count must fail")
}

func TestAugment(t *testing.T) {
	p := twoComponentFit(t)

	t.Run("no data returns stored scores", func(t *testing.T) {
		out, err := Augment(p, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{".rownames", ".fittedPC1", ".fittedPC2"}, out.Names())
		assert.Equal(t, 3, out.NumRows())

		pc1, _ := out.Numeric(".fittedPC1")
		assert.Equal(t, []float64{1.0, -0.5, 2.0}, pc1)
	})

	t.Run("original data is carried through", func(t *testing.T) {
		data := table.New()
		require.NoError(t, data.AddNumeric("x1", []float64{1, 2, 3}))
		out, err := Augment(p, data, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"x1", ".rownames", ".fittedPC1", ".fittedPC2"}, out.Names())
	})

	t.Run("row count mismatch fails", func(t *testing.T) {
		data := table.New()
		require.NoError(t, data.AddNumeric("x1", []float64{1, 2}))
		_, err := Augment(p, data, nil)
		assert.Error(t, err)
	})

	t.Run("new data is projected", func(t *testing.T) {
		newData := table.New()
		require.NoError(t, newData.AddNumeric("x1", []float64{3}))
		require.NoError(t, newData.AddNumeric("x2", []float64{2}))
		out, err := Augment(p, nil, newData)
		require.NoError(t, err)
		assert.Equal(t, []string{"x1", "x2", ".fittedPC1", ".fittedPC2"}, out.Names())

		pc1, _ := out.Numeric(".fittedPC1")
		assert.InDelta(t, 3*math.Sqrt(0.5), pc1[0], 1e-12)
	})

	t.Run("new data missing a variable fails", func(t *testing.T) {
		newData := table.New()
		require.NoError(t, newData.AddNumeric("x1", []float64{3}))
		_, err := Augment(p, nil, newData)
		assert.Error(t, err)
	})
}
