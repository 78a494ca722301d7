package mixed

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &warnings
}

// subjectFit builds a two-term random-intercept-and-slope adapter in the
// shape of the classic sleep-deprivation fit.
func subjectFit(t *testing.T, opts ...Option) *Model {
	t.Helper()
	corr := mat.NewSymDense(2, []float64{1, 0.07, 0.07, 1})
	modes := mat.NewDense(3, 2, []float64{
		1.5, 9.1,
		-40.4, -8.6,
		-39.0, -5.5,
	})
	condVar := mat.NewDense(3, 2, []float64{
		145.7, 5.3,
		145.7, 5.3,
		145.7, 5.3,
	})
	m, err := New(
		[]string{"(Intercept)", "Days"},
		[]float64{251.4, 10.47},
		[]float64{6.82, 1.55},
		append([]Option{
			WithGroup(Group{
				Name:    "Subject",
				Terms:   []string{"(Intercept)", "Days"},
				SD:      []float64{24.74, 5.92},
				Corr:    corr,
				Levels:  []string{"308", "309", "310"},
				Modes:   modes,
				CondVar: condVar,
			}),
			WithSigma(25.59),
		}, opts...)...)
	require.NoError(t, err)
	return m
}

func TestNewValidation(t *testing.T) {
	t.Run("term count mismatch", func(t *testing.T) {
		_, err := New([]string{"(Intercept)"}, []float64{1, 2}, []float64{0.1, 0.2})
		assert.Error(t, err)
	})
	t.Run("group sd count mismatch", func(t *testing.T) {
		_, err := New([]string{"(Intercept)"}, []float64{1}, []float64{0.1},
			WithGroup(Group{Name: "g", Terms: []string{"a", "b"}, SD: []float64{1}}))
		assert.Error(t, err)
	})
	t.Run("modes without matching levels", func(t *testing.T) {
		_, err := New([]string{"(Intercept)"}, []float64{1}, []float64{0.1},
			WithGroup(Group{
				Name:   "g",
				Terms:  []string{"a"},
				SD:     []float64{1},
				Levels: []string{"l1"},
				Modes:  mat.NewDense(2, 1, nil),
			}))
		assert.Error(t, err)
	})
	t.Run("residual count mismatch", func(t *testing.T) {
		_, err := New([]string{"(Intercept)"}, []float64{1}, []float64{0.1},
			WithObservations([]float64{1, 2, 3}, []float64{1, 2, 3}, []float64{0}))
		assert.Error(t, err)
	})
}

func TestTidyFixedOnly(t *testing.T) {
	m := subjectFit(t)
	assert.Equal(t, model.KindMixed, m.ModelKind())

	tt, err := m.Tidy()
	require.NoError(t, err)
	require.Len(t, tt.Rows, 2)
	assert.False(t, tt.HasGroup)
	assert.False(t, tt.HasLevel)

	for i, row := range tt.Rows {
		assert.Equal(t, EffectFixed, row.Effect)
		assert.Empty(t, row.Group)
		assert.InDelta(t, m.fixedCoef[i]/m.fixedSE[i], row.Statistic, 1e-12)
		// The intercept's |z| is ~37, where the normal survival function
		// underflows to exactly zero.
		assert.GreaterOrEqual(t, row.PValue, 0.0)
		assert.Less(t, row.PValue, 1.0)
	}
	// The slope's |z| is modest, so its p-value is strictly positive.
	assert.Greater(t, tt.Rows[1].PValue, 0.0)

	tbl, err := tt.Table()
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"effect", "term", "estimate", "std.error", "statistic", "p.value"},
		tbl.Names())
}

func TestTidyRanPars(t *testing.T) {
	m := subjectFit(t)

	tt, err := m.Tidy(WithEffects(EffectFixed, EffectRanPars))
	require.NoError(t, err)
	assert.True(t, tt.HasGroup)
	assert.False(t, tt.HasLevel)
	require.Len(t, tt.Rows, 2+4)

	// Fixed rows come first and pick up a uniform group label.
	assert.Equal(t, EffectFixed, tt.Rows[0].Effect)
	assert.Equal(t, "fixed", tt.Rows[0].Group)

	type want struct {
		group    string
		term     string
		estimate float64
	}
	wants := []want{
		{"Subject", "sd__(Intercept)", 24.74},
		{"Subject", "sd__Days", 5.92},
		{"Subject", "cor__(Intercept).Days", 0.07},
		{"Residual", "sd__Observation", 25.59},
	}
	for i, w := range wants {
		row := tt.Rows[2+i]
		assert.Equal(t, EffectRanPars, row.Effect)
		assert.Equal(t, w.group, row.Group)
		assert.Equal(t, w.term, row.Term)
		assert.InDelta(t, w.estimate, row.Estimate, 1e-12)
		assert.True(t, math.IsNaN(row.StdError))
		assert.True(t, math.IsNaN(row.PValue))
	}

	t.Run("vcov scale squares and crosses", func(t *testing.T) {
		tt, err := m.Tidy(WithEffects(EffectRanPars), WithScales(ScaleVCov))
		require.NoError(t, err)
		require.Len(t, tt.Rows, 4)
		assert.Equal(t, "var__(Intercept)", tt.Rows[0].Term)
		assert.InDelta(t, 24.74*24.74, tt.Rows[0].Estimate, 1e-10)
		assert.Equal(t, "cov__(Intercept).Days", tt.Rows[2].Term)
		assert.InDelta(t, 0.07*24.74*5.92, tt.Rows[2].Estimate, 1e-10)
		assert.Equal(t, "var__Observation", tt.Rows[3].Term)
		assert.InDelta(t, 25.59*25.59, tt.Rows[3].Estimate, 1e-10)
	})

	t.Run("custom prefixes", func(t *testing.T) {
		tt, err := m.Tidy(WithEffects(EffectRanPars), WithRanPrefix("stddev", "rho"))
		require.NoError(t, err)
		assert.Equal(t, "stddev__(Intercept)", tt.Rows[0].Term)
		assert.Equal(t, "rho__(Intercept).Days", tt.Rows[2].Term)
	})

	t.Run("wald intervals stay missing with a warning", func(t *testing.T) {
		warnings := captureWarnings(t)
		tt, err := m.Tidy(WithEffects(EffectRanPars), WithConfInt(true))
		require.NoError(t, err)
		assert.True(t, tt.HasConfInt)
		for _, row := range tt.Rows {
			assert.True(t, math.IsNaN(row.ConfLow))
			assert.True(t, math.IsNaN(row.ConfHigh))
		}
		require.Len(t, *warnings, 1)
		var missing *errors.MissingDiagnosticWarning
		assert.True(t, errors.As((*warnings)[0], &missing))
	})

	t.Run("profile intervals delegate", func(t *testing.T) {
		profiled := subjectFit(t, WithRanParsProfiler(func(level float64) ([]model.Interval, error) {
			return []model.Interval{
				{Low: 14, High: 37}, {Low: 3.8, High: 8.8},
				{Low: -0.5, High: 0.8}, {Low: 22.9, High: 28.8},
			}, nil
		}))
		tt, err := profiled.Tidy(WithEffects(EffectRanPars),
			WithConfInt(true), WithConfMethod(MethodProfile))
		require.NoError(t, err)
		assert.Equal(t, 14.0, tt.Rows[0].ConfLow)
		assert.Equal(t, 28.8, tt.Rows[3].ConfHigh)
	})

	t.Run("profile row count mismatch fails", func(t *testing.T) {
		profiled := subjectFit(t, WithRanParsProfiler(func(level float64) ([]model.Interval, error) {
			return []model.Interval{{Low: 0, High: 1}}, nil
		}))
		_, err := profiled.Tidy(WithEffects(EffectRanPars),
			WithConfInt(true), WithConfMethod(MethodProfile))
		assert.Error(t, err)
	})
}

func TestTidyRanModes(t *testing.T) {
	m := subjectFit(t)

	tt, err := m.Tidy(WithEffects(EffectRanModes))
	require.NoError(t, err)
	assert.True(t, tt.HasGroup)
	assert.True(t, tt.HasLevel)
	// Three levels by two terms, levels outer.
	require.Len(t, tt.Rows, 6)
	assert.Equal(t, "308", tt.Rows[0].Level)
	assert.Equal(t, "(Intercept)", tt.Rows[0].Term)
	assert.Equal(t, "308", tt.Rows[1].Level)
	assert.Equal(t, "Days", tt.Rows[1].Term)
	assert.Equal(t, "309", tt.Rows[2].Level)

	assert.Equal(t, 1.5, tt.Rows[0].Estimate)
	assert.InDelta(t, math.Sqrt(145.7), tt.Rows[0].StdError, 1e-12)
	for _, row := range tt.Rows {
		assert.Equal(t, EffectRanModes, row.Effect)
		assert.Equal(t, "Subject", row.Group)
	}

	tbl, err := tt.Table()
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"effect", "group", "level", "term", "estimate", "std.error", "statistic", "p.value"},
		tbl.Names())

	t.Run("wald intervals from the conditional variance", func(t *testing.T) {
		tt, err := m.Tidy(WithEffects(EffectRanModes), WithConfInt(true))
		require.NoError(t, err)
		row := tt.Rows[0]
		q := stdNormal.Quantile(0.975)
		assert.InDelta(t, 1.5-q*math.Sqrt(145.7), row.ConfLow, 1e-10)
		assert.InDelta(t, 1.5+q*math.Sqrt(145.7), row.ConfHigh, 1e-10)
	})

	t.Run("profile intervals are refused", func(t *testing.T) {
		_, err := m.Tidy(WithEffects(EffectRanModes),
			WithConfInt(true), WithConfMethod(MethodProfile))
		require.Error(t, err)
		var unsupported *errors.UnsupportedOperationError
		assert.True(t, errors.As(err, &unsupported))
	})

	t.Run("superseded name random still works", func(t *testing.T) {
		warnings := captureWarnings(t)
		tt2, err := m.Tidy(WithEffects("random"))
		require.NoError(t, err)
		require.Len(t, tt2.Rows, len(tt.Rows))
		for i := range tt.Rows {
			assert.Equal(t, tt.Rows[i].Level, tt2.Rows[i].Level)
			assert.Equal(t, tt.Rows[i].Term, tt2.Rows[i].Term)
			assert.Equal(t, tt.Rows[i].Estimate, tt2.Rows[i].Estimate)
		}
		require.Len(t, *warnings, 1)
		var dep *errors.DeprecatedOptionWarning
		assert.True(t, errors.As((*warnings)[0], &dep))
	})

	t.Run("no conditional modes", func(t *testing.T) {
		bare, err := New([]string{"(Intercept)"}, []float64{1}, []float64{0.1},
			WithGroup(Group{Name: "g", Terms: []string{"(Intercept)"}, SD: []float64{2}}))
		require.NoError(t, err)
		_, err = bare.Tidy(WithEffects(EffectRanModes))
		require.Error(t, err)
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})
}

func TestTidyValidation(t *testing.T) {
	m := subjectFit(t)

	t.Run("zero-inflation component is refused", func(t *testing.T) {
		_, err := m.Tidy(WithComponent("zi"))
		require.Error(t, err)
		var unsupported *errors.UnsupportedOperationError
		assert.True(t, errors.As(err, &unsupported))
	})
	t.Run("unknown effect", func(t *testing.T) {
		_, err := m.Tidy(WithEffects("marginal"))
		require.Error(t, err)
		var invalid *errors.InvalidArgumentError
		assert.True(t, errors.As(err, &invalid))
	})
	t.Run("unknown scale", func(t *testing.T) {
		_, err := m.Tidy(WithScales("logsd"))
		assert.Error(t, err)
	})
	t.Run("bad level", func(t *testing.T) {
		_, err := m.Tidy(WithConfLevel(0))
		assert.Error(t, err)
	})
	t.Run("duplicate effects collapse", func(t *testing.T) {
		tt, err := m.Tidy(WithEffects(EffectFixed, EffectFixed))
		require.NoError(t, err)
		assert.Len(t, tt.Rows, 2)
	})
}

func TestTidyFixedProfile(t *testing.T) {
	t.Run("requires a profiler", func(t *testing.T) {
		m := subjectFit(t)
		_, err := m.Tidy(WithConfInt(true), WithConfMethod(MethodProfile))
		require.Error(t, err)
		var unsupported *errors.UnsupportedOperationError
		assert.True(t, errors.As(err, &unsupported))
	})

	t.Run("delegates to the attached profiler", func(t *testing.T) {
		m := subjectFit(t, WithFixedProfiler(func(level float64) ([]model.Interval, error) {
			return []model.Interval{{Low: 237.7, High: 265.1}, {Low: 7.4, High: 13.5}}, nil
		}))
		tt, err := m.Tidy(WithConfInt(true), WithConfMethod(MethodProfile))
		require.NoError(t, err)
		assert.Equal(t, 237.7, tt.Rows[0].ConfLow)
		assert.Equal(t, 13.5, tt.Rows[1].ConfHigh)
	})
}

func TestAugment(t *testing.T) {
	fitted := []float64{252.9, 272.5, 283.9}
	fixed := []float64{251.4, 261.9, 272.3}
	resid := []float64{-3.1, 8.2, -33.2}
	m := subjectFit(t, WithObservations(fitted, fixed, resid))

	out, err := m.Augment()
	require.NoError(t, err)
	assert.Equal(t, []string{".fitted", ".resid", ".fixed"}, out.Names())
	got, _ := out.Numeric(".fixed")
	assert.Equal(t, fixed, got)

	t.Run("data columns come first", func(t *testing.T) {
		data := table.New()
		require.NoError(t, data.AddNumeric("Days", []float64{0, 1, 2}))
		out, err := m.Augment(WithData(data))
		require.NoError(t, err)
		assert.Equal(t, []string{"Days", ".fitted", ".resid", ".fixed"}, out.Names())
	})

	t.Run("standard errors only when the fit supplied them", func(t *testing.T) {
		warnings := captureWarnings(t)
		out, err := m.Augment(WithSE(true))
		require.NoError(t, err)
		assert.False(t, out.HasColumn(".se.fit"))
		assert.NotEmpty(t, *warnings)

		withSE := subjectFit(t,
			WithObservations(fitted, fixed, resid),
			WithSEFit([]float64{6.6, 6.8, 7.1}))
		out, err = withSE.Augment(WithSE(true))
		require.NoError(t, err)
		assert.True(t, out.HasColumn(".se.fit"))
	})

	t.Run("new data needs the fit's prediction machinery", func(t *testing.T) {
		newData := table.New()
		require.NoError(t, newData.AddNumeric("Days", []float64{4}))

		_, err := m.Augment(WithNewData(newData))
		require.Error(t, err)
		var unsupported *errors.UnsupportedOperationError
		assert.True(t, errors.As(err, &unsupported))

		predicting := subjectFit(t, WithPredictFunc(
			func(nd *table.Table, predictionType string) ([]float64, []float64, error) {
				n := nd.NumRows()
				f := make([]float64, n)
				fx := make([]float64, n)
				for i := range f {
					f[i] = 293.3
					fx[i] = 293.3
				}
				return f, fx, nil
			}))
		out, err := predicting.Augment(WithNewData(newData))
		require.NoError(t, err)
		assert.Equal(t, []string{"Days", ".fitted", ".fixed"}, out.Names())
		got, _ := out.Numeric(".fitted")
		assert.Equal(t, []float64{293.3}, got)
	})

	t.Run("unknown prediction type", func(t *testing.T) {
		_, err := m.Augment(WithPredictionType("link"))
		require.Error(t, err)
		var invalid *errors.InvalidArgumentError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("no observation vectors", func(t *testing.T) {
		bare := subjectFit(t)
		_, err := bare.Augment()
		require.Error(t, err)
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})
}

func TestGlance(t *testing.T) {
	m := subjectFit(t, WithFitStats(-871.8, 1755.6, 1774.8, 1743.6))

	g, err := m.Glance()
	require.NoError(t, err)
	assert.Equal(t, 25.59, g.Sigma)
	assert.Equal(t, -871.8, g.LogLik)
	assert.Equal(t, 1755.6, g.AIC)
	assert.Equal(t, 1774.8, g.BIC)
	assert.Equal(t, 1743.6, g.Deviance)

	tbl, err := g.Table()
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, []string{"sigma", "logLik", "AIC", "BIC", "deviance"}, tbl.Names())

	t.Run("no fit statistics", func(t *testing.T) {
		bare, err := New([]string{"(Intercept)"}, []float64{1}, []float64{0.1})
		require.NoError(t, err)
		_, err = bare.Glance()
		require.Error(t, err)
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})
}
