package lm

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// QuickCoef is one row of the quick coefficient path.
type QuickCoef struct {
	Term     string
	Estimate float64
}

// TidyQuick returns only terms and estimates, read straight off the
// coefficient values. Use it when the inferential statistics are expensive or
// unavailable; a model built without data supports only this path. Rows of a
// multi-response fit are flattened response-major, matching the full path.
func (m *Model) TidyQuick() []QuickCoef {
	_, k := m.coef.Dims()
	rows := make([]QuickCoef, 0, len(m.terms)*k)
	for j := 0; j < k; j++ {
		rows = append(rows, assembleQuickRows(m.terms, mat.Col(nil, j, m.coef))...)
	}
	return rows
}

// assembleQuickRows is the row assembly shared by the quick and full paths.
func assembleQuickRows(terms []string, estimates []float64) []QuickCoef {
	rows := make([]QuickCoef, len(terms))
	for i, term := range terms {
		rows[i] = QuickCoef{Term: term, Estimate: estimates[i]}
	}
	return rows
}

// Coefficient is one row of the full coefficient table.
type Coefficient struct {
	Response  string // set only for multi-response fits
	Term      string
	Estimate  float64
	StdError  float64
	Statistic float64
	PValue    float64
	ConfLow   float64 // set only when intervals were requested
	ConfHigh  float64
}

// CoefTable is the full coefficient table. The Has flags record which
// optional columns are populated; a populated column is populated for every
// row.
type CoefTable struct {
	Rows        []Coefficient
	HasResponse bool
	HasConfInt  bool
}

// Table materializes the active schema as a tidy table.
func (t *CoefTable) Table() (*table.Table, error) {
	n := len(t.Rows)
	terms := make([]string, n)
	est := make([]float64, n)
	se := make([]float64, n)
	stat := make([]float64, n)
	pval := make([]float64, n)
	for i, r := range t.Rows {
		terms[i] = r.Term
		est[i] = r.Estimate
		se[i] = r.StdError
		stat[i] = r.Statistic
		pval[i] = r.PValue
	}

	out := table.New()
	if t.HasResponse {
		resp := make([]string, n)
		for i, r := range t.Rows {
			resp[i] = r.Response
		}
		if err := out.AddString("response", resp); err != nil {
			return nil, err
		}
	}
	if err := out.AddString("term", terms); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		name   string
		values []float64
	}{
		{"estimate", est},
		{"std.error", se},
		{"statistic", stat},
		{"p.value", pval},
	} {
		if err := out.AddNumeric(col.name, col.values); err != nil {
			return nil, err
		}
	}
	if t.HasConfInt {
		low := make([]float64, n)
		high := make([]float64, n)
		for i, r := range t.Rows {
			low[i] = r.ConfLow
			high[i] = r.ConfHigh
		}
		if err := out.AddNumeric("conf.low", low); err != nil {
			return nil, err
		}
		if err := out.AddNumeric("conf.high", high); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Tidy extracts the full coefficient table: term, estimate, standard error,
// t statistic and p-value, with optional confidence intervals and optional
// back-transformation. For a multi-response fit the rows carry a response
// label and are ordered response-then-term; interval requests are dropped
// with a warning there, since per-response intervals are undefined.
func (m *Model) Tidy(opts ...TidyOption) (*CoefTable, error) {
	cfg, err := newTidyConfig("lm.Tidy", opts)
	if err != nil {
		return nil, err
	}
	if m.x == nil {
		return nil, errors.NewNotFittedError("lm", "design matrix and response (use TidyQuick for coefficient values only)")
	}

	p, k := m.coef.Dims()
	multi := k > 1

	confInt := cfg.confInt
	if confInt && multi {
		errors.Warn(errors.NewMissingDiagnosticWarning("lm.Tidy", "conf.low/conf.high", "mlm"))
		confInt = false
	}
	if cfg.transform {
		// Ordinary least squares has an identity link, so there is nothing
		// to back-transform.
		errors.Warn(errors.NewNoOpTransformWarning("lm.Tidy", "model has identity link"))
	}

	var intervals []model.Interval
	if confInt {
		intervals, err = m.confInt(cfg.confLevel, cfg.confMethod)
		if err != nil {
			return nil, err
		}
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(m.n - p)}
	out := &CoefTable{HasResponse: multi, HasConfInt: confInt}
	for j := 0; j < k; j++ {
		se := m.stdErrors(j)
		for i, quick := range assembleQuickRows(m.terms, mat.Col(nil, j, m.coef)) {
			row := Coefficient{
				Term:      quick.Term,
				Estimate:  quick.Estimate,
				StdError:  table.Missing,
				Statistic: table.Missing,
				PValue:    table.Missing,
			}
			if multi {
				row.Response = m.responses[j]
			}
			if se != nil {
				row.StdError = se[i]
				row.Statistic = quick.Estimate / se[i]
				row.PValue = 2 * tDist.Survival(math.Abs(row.Statistic))
			}
			if confInt {
				row.ConfLow = intervals[i].Low
				row.ConfHigh = intervals[i].High
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

// confInt computes single-response coefficient intervals by the requested
// method.
func (m *Model) confInt(level float64, method string) ([]model.Interval, error) {
	switch method {
	case MethodProfile:
		if m.profiler == nil {
			return nil, errors.NewUnsupportedOperationError("lm.Tidy", "lm",
				"profile intervals require a profiler from the external fit")
		}
		return m.profiler(level)
	default:
		se := m.stdErrors(0)
		if se == nil {
			return nil, errors.NewUnsupportedOperationError("lm.Tidy", "lm",
				"rank-deficient fit has no standard errors")
		}
		p := m.NumParams()
		tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(m.n - p)}
		q := tDist.Quantile(1 - (1-level)/2)
		intervals := make([]model.Interval, p)
		for i := 0; i < p; i++ {
			est := m.coef.At(i, 0)
			intervals[i] = model.Interval{Low: est - q*se[i], High: est + q*se[i]}
		}
		return intervals, nil
	}
}
