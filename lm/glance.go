package lm

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// Glance summarizes a linear fit in one row. Statistic and PValue are the
// overall F test and are NaN for fits without one (no intercept, a single
// parameter, or a rank-deficient cross-product).
type Glance struct {
	RSquared    float64
	AdjRSquared float64
	Sigma       float64
	Statistic   float64
	PValue      float64
	DF          float64 // model degrees of freedom (parameter count)
	LogLik      float64
	AIC         float64
	BIC         float64
	Deviance    float64
	DFResidual  float64
}

// Glance returns the one-row summary of the fit. Undefined for multi-response
// fits.
func (m *Model) Glance() (*Glance, error) {
	if m.IsMultiResponse() {
		return nil, errors.NewUnsupportedOperationError("lm.Glance", "mlm",
			"goodness-of-fit summaries are defined per single response")
	}
	if m.x == nil {
		return nil, errors.NewNotFittedError("lm", "design matrix and response")
	}

	n := m.n
	p := m.NumParams()
	rss := m.rss[0]

	// Total sum of squares, centered only when the model has an intercept.
	y := mat.Col(nil, 0, m.y)
	var tss float64
	if m.hasIntercept {
		var mean float64
		for _, v := range y {
			mean += v
		}
		mean /= float64(n)
		for _, v := range y {
			tss += (v - mean) * (v - mean)
		}
	} else {
		for _, v := range y {
			tss += v * v
		}
	}

	r2 := 1 - rss/tss
	adj := 1 - (1-r2)*float64(n-1)/float64(n-p)

	fStat := math.NaN()
	fPValue := math.NaN()
	if m.hasIntercept && p > 1 && !m.rankDeficient {
		fStat = ((tss - rss) / float64(p-1)) / (rss / float64(n-p))
		fDist := distuv.F{D1: float64(p - 1), D2: float64(n - p)}
		fPValue = fDist.Survival(fStat)
	}

	logLik := -float64(n) / 2 * (math.Log(2*math.Pi) + math.Log(rss/float64(n)) + 1)
	// The +1 counts the estimated residual variance alongside the
	// coefficients, matching the usual least-squares likelihood bookkeeping.
	aic := -2*logLik + 2*float64(p+1)
	bic := -2*logLik + math.Log(float64(n))*float64(p+1)

	return &Glance{
		RSquared:    r2,
		AdjRSquared: adj,
		Sigma:       m.sigma[0],
		Statistic:   fStat,
		PValue:      fPValue,
		DF:          float64(p),
		LogLik:      logLik,
		AIC:         aic,
		BIC:         bic,
		Deviance:    rss,
		DFResidual:  float64(n - p),
	}, nil
}

// Table materializes the one-row summary.
func (g *Glance) Table() (*table.Table, error) {
	return table.OneRow(
		[]string{
			"r.squared", "adj.r.squared", "sigma", "statistic", "p.value",
			"df", "logLik", "AIC", "BIC", "deviance", "df.residual",
		},
		[]float64{
			g.RSquared, g.AdjRSquared, g.Sigma, g.Statistic, g.PValue,
			g.DF, g.LogLik, g.AIC, g.BIC, g.Deviance, g.DFResidual,
		},
	)
}
