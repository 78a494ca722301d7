package lm

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

func TestLinkCatalogue(t *testing.T) {
	names := []string{"identity", "log", "logit", "probit", "inverse", "sqrt", "cloglog"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			link, err := LinkByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, link.Name)
			require.NotNil(t, link.Inverse)
			require.NotNil(t, link.MuEta)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := LinkByName("cauchit")
		require.Error(t, err)
		var invalid *errors.InvalidArgumentError
		assert.True(t, errors.As(err, &invalid))
	})

	t.Run("logit at zero", func(t *testing.T) {
		logit := LogitLink()
		assert.InDelta(t, 0.5, logit.Inverse(0), 1e-12)
		assert.InDelta(t, 0.25, logit.MuEta(0), 1e-12)
		assert.False(t, logit.IsIdentity())
	})

	t.Run("log is its own derivative", func(t *testing.T) {
		logl := LogLink()
		assert.InDelta(t, logl.Inverse(1.3), logl.MuEta(1.3), 1e-12)
	})

	assert.True(t, IdentityLink().IsIdentity())
}

func TestNewGLMValidation(t *testing.T) {
	coef := []float64{-1, 0.5}
	se := []float64{0.3, 0.1}

	t.Run("term count mismatch", func(t *testing.T) {
		_, err := NewGLM([]string{"(Intercept)"}, coef, se, LogitLink())
		assert.Error(t, err)
	})
	t.Run("standard error count mismatch", func(t *testing.T) {
		_, err := NewGLM([]string{"(Intercept)", "x"}, coef, []float64{0.3}, LogitLink())
		assert.Error(t, err)
	})
	t.Run("missing link", func(t *testing.T) {
		_, err := NewGLM([]string{"(Intercept)", "x"}, coef, se, Link{Name: "logit"})
		require.Error(t, err)
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})
}

// logisticFit builds a six-observation logistic adapter with an intercept and
// one predictor.
func logisticFit(t *testing.T, opts ...GLMOption) *GLM {
	t.Helper()
	x := mat.NewDense(6, 2, nil)
	y := []float64{0, 0, 1, 0, 1, 1}
	for i := 0; i < 6; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i))
	}
	g, err := NewGLM([]string{"(Intercept)", "x"},
		[]float64{-1, 0.5}, []float64{0.3, 0.1}, LogitLink(),
		append([]GLMOption{WithGLMData(x, y), WithFamily("binomial")}, opts...)...)
	require.NoError(t, err)
	return g
}

func TestGLMTidy(t *testing.T) {
	g := logisticFit(t)
	require.Equal(t, model.KindGLM, g.ModelKind())

	ct, err := g.Tidy()
	require.NoError(t, err)
	require.Len(t, ct.Rows, 2)

	// Wald z on the link scale.
	assert.InDelta(t, -1.0/0.3, ct.Rows[0].Statistic, 1e-12)
	assert.InDelta(t, 0.5/0.1, ct.Rows[1].Statistic, 1e-12)
	for _, row := range ct.Rows {
		assert.InDelta(t, 2*stdNormal.Survival(math.Abs(row.Statistic)), row.PValue, 1e-12)
	}

	t.Run("wald intervals use the normal quantile", func(t *testing.T) {
		ct, err := g.Tidy(WithConfInt(true), WithConfLevel(0.95))
		require.NoError(t, err)
		q := stdNormal.Quantile(0.975)
		assert.InDelta(t, -1-q*0.3, ct.Rows[0].ConfLow, 1e-10)
		assert.InDelta(t, -1+q*0.3, ct.Rows[0].ConfHigh, 1e-10)
	})

	t.Run("profile requires a profiler", func(t *testing.T) {
		_, err := g.Tidy(WithConfInt(true), WithConfMethod(MethodProfile))
		require.Error(t, err)
		var unsupported *errors.UnsupportedOperationError
		assert.True(t, errors.As(err, &unsupported))
	})
}

func TestGLMTidyTransform(t *testing.T) {
	// A zero coefficient back-transforms to exactly one half under the
	// logit, with the standard error scaled by a quarter.
	x := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	g, err := NewGLM([]string{"(Intercept)"},
		[]float64{0}, []float64{0.4}, LogitLink(),
		WithGLMData(x, []float64{0, 1, 0, 1}))
	require.NoError(t, err)

	plain, err := g.Tidy(WithConfInt(true))
	require.NoError(t, err)
	ct, err := g.Tidy(WithConfInt(true), WithTransform(true))
	require.NoError(t, err)

	row := ct.Rows[0]
	assert.InDelta(t, 0.5, row.Estimate, 1e-12)
	assert.InDelta(t, 0.25*0.4, row.StdError, 1e-12)

	// Statistic and p-value stay on the link scale.
	assert.Equal(t, plain.Rows[0].Statistic, row.Statistic)
	assert.Equal(t, plain.Rows[0].PValue, row.PValue)

	// Interval bounds are mapped through the inverse link.
	inv := LogitLink().Inverse
	assert.InDelta(t, inv(plain.Rows[0].ConfLow), row.ConfLow, 1e-12)
	assert.InDelta(t, inv(plain.Rows[0].ConfHigh), row.ConfHigh, 1e-12)

	t.Run("identity link makes transform a warned no-op", func(t *testing.T) {
		warnings := captureWarnings(t)
		gi, err := NewGLM([]string{"(Intercept)"},
			[]float64{2}, []float64{0.4}, IdentityLink(),
			WithGLMData(x, []float64{1, 2, 3, 2}))
		require.NoError(t, err)
		ct, err := gi.Tidy(WithTransform(true))
		require.NoError(t, err)
		assert.Equal(t, 2.0, ct.Rows[0].Estimate)
		assert.Equal(t, 0.4, ct.Rows[0].StdError)
		require.Len(t, *warnings, 1)
		var noop *errors.NoOpTransformWarning
		assert.True(t, errors.As((*warnings)[0], &noop))
	})
}

func TestGLMAugmentTraining(t *testing.T) {
	warnings := captureWarnings(t)
	g := logisticFit(t)

	out, err := g.Augment()
	require.NoError(t, err)
	assert.Equal(t, 6, out.NumRows())
	// No working weights attached: .hat is omitted with a warning, as are the
	// least-squares-only diagnostics.
	assert.Equal(t, []string{".fitted", ".resid"}, out.Names())
	assert.NotEmpty(t, *warnings)

	inv := LogitLink().Inverse
	fitted, _ := out.Numeric(".fitted")
	resid, _ := out.Numeric(".resid")
	for i := 0; i < 6; i++ {
		mu := inv(-1 + 0.5*float64(i))
		assert.InDelta(t, mu, fitted[i], 1e-12)
		// Response residuals are derived automatically.
		assert.InDelta(t, []float64{0, 0, 1, 0, 1, 1}[i]-mu, resid[i], 1e-12)
	}

	t.Run("link-scale predictions", func(t *testing.T) {
		out, err := g.Augment(WithPredictionType(PredictLink))
		require.NoError(t, err)
		fitted, _ := out.Numeric(".fitted")
		assert.InDelta(t, -1.0, fitted[0], 1e-12)
		assert.InDelta(t, -0.5, fitted[1], 1e-12)
	})

	t.Run("supplied deviance residuals take priority", func(t *testing.T) {
		dev := []float64{-0.1, -0.2, 0.3, -0.4, 0.5, 0.6}
		g := logisticFit(t, WithResiduals(ResidDeviance, dev))
		out, err := g.Augment()
		require.NoError(t, err)
		resid, _ := out.Numeric(".resid")
		assert.Equal(t, dev, resid)

		// An explicit response request still reaches the derived residuals.
		out, err = g.Augment(WithResidualType(ResidResponse))
		require.NoError(t, err)
		resid, _ = out.Numeric(".resid")
		assert.NotEqual(t, dev, resid)
	})

	t.Run("working weights unlock the hat diagonal", func(t *testing.T) {
		w := make([]float64, 6)
		inv := LogitLink().Inverse
		for i := range w {
			mu := inv(-1 + 0.5*float64(i))
			w[i] = mu * (1 - mu)
		}
		g := logisticFit(t, WithWorkingWeights(w))
		out, err := g.Augment()
		require.NoError(t, err)
		hat, ok := out.Numeric(".hat")
		require.True(t, ok)
		// The weighted hat diagonal sums to the parameter count.
		var sum float64
		for _, h := range hat {
			sum += h
		}
		assert.InDelta(t, 2.0, sum, 1e-8)
	})
}

func TestGLMAugmentNewData(t *testing.T) {
	vcov := mat.NewDense(2, 2, []float64{0.09, 0, 0, 0.01})
	g := logisticFit(t, WithVcov(vcov), WithGLMResponseName("y"))

	newData := table.New()
	require.NoError(t, newData.AddNumeric("x", []float64{2, 10}))
	require.NoError(t, newData.AddNumeric("y", []float64{1, 1}))

	out, err := g.Augment(WithNewData(newData))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", ".fitted", ".se.fit", ".resid"}, out.Names())

	inv := LogitLink().Inverse
	fitted, _ := out.Numeric(".fitted")
	seFit, _ := out.Numeric(".se.fit")
	resid, _ := out.Numeric(".resid")

	// x=2 puts the linear predictor at exactly zero.
	assert.InDelta(t, inv(0), fitted[0], 1e-12)
	seLink := math.Sqrt(0.09 + 4*0.01)
	assert.InDelta(t, 0.25*seLink, seFit[0], 1e-12)
	assert.InDelta(t, 1-0.5, resid[0], 1e-12)

	t.Run("link scale skips delta rescaling", func(t *testing.T) {
		out, err := g.Augment(WithNewData(newData), WithPredictionType(PredictLink))
		require.NoError(t, err)
		fitted, _ := out.Numeric(".fitted")
		seFit, _ := out.Numeric(".se.fit")
		assert.InDelta(t, 0.0, fitted[0], 1e-12)
		assert.InDelta(t, seLink, seFit[0], 1e-12)
		// Link-scale predictions are not comparable to the response.
		assert.False(t, out.HasColumn(".resid"))
	})

	t.Run("without covariance the standard error is omitted", func(t *testing.T) {
		warnings := captureWarnings(t)
		g := logisticFit(t, WithGLMResponseName("y"))
		out, err := g.Augment(WithNewData(newData))
		require.NoError(t, err)
		assert.False(t, out.HasColumn(".se.fit"))
		assert.NotEmpty(t, *warnings)
	})
}

func TestGLMGlance(t *testing.T) {
	g := logisticFit(t,
		WithDeviance(6.2, 8.3),
		WithLogLik(-3.1))

	gl, err := g.Glance()
	require.NoError(t, err)
	assert.Equal(t, 8.3, gl.NullDeviance)
	assert.Equal(t, 5.0, gl.DFNull)
	assert.Equal(t, 6.2, gl.Deviance)
	assert.Equal(t, 4.0, gl.DFResidual)
	assert.InDelta(t, -2*-3.1+2*2, gl.AIC, 1e-12)
	assert.InDelta(t, -2*-3.1+math.Log(6)*2, gl.BIC, 1e-12)

	tbl, err := gl.Table()
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.NumRows())
	assert.Equal(t,
		[]string{"null.deviance", "df.null", "logLik", "AIC", "BIC", "deviance", "df.residual"},
		tbl.Names())

	t.Run("missing log-likelihood leaves the criteria missing", func(t *testing.T) {
		g := logisticFit(t, WithDeviance(6.2, 8.3))
		gl, err := g.Glance()
		require.NoError(t, err)
		assert.True(t, math.IsNaN(gl.AIC))
		assert.True(t, math.IsNaN(gl.BIC))
	})

	t.Run("no observations", func(t *testing.T) {
		g, err := NewGLM([]string{"x"}, []float64{1}, []float64{0.1}, LogLink())
		require.NoError(t, err)
		_, err = g.Glance()
		require.Error(t, err)
		var notFitted *errors.NotFittedError
		assert.True(t, errors.As(err, &notFitted))
	})
}
