package mixed

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Row is one row of the unified mixed-model tidy table. Fields that do not
// apply to a row's effect kind hold the zero value (strings) or NaN
// (statistics).
type Row struct {
	Effect    string
	Group     string
	Level     string
	Term      string
	Estimate  float64
	StdError  float64
	Statistic float64
	PValue    float64
	ConfLow   float64
	ConfHigh  float64
}

// TidyTable is the concatenated tidy output. The Has flags record which
// optional columns are materialized.
type TidyTable struct {
	Rows       []Row
	HasGroup   bool
	HasLevel   bool
	HasConfInt bool
}

// Table materializes the active schema.
func (t *TidyTable) Table() (*table.Table, error) {
	n := len(t.Rows)
	get := func(f func(Row) float64) []float64 {
		out := make([]float64, n)
		for i, r := range t.Rows {
			out[i] = f(r)
		}
		return out
	}
	getS := func(f func(Row) string) []string {
		out := make([]string, n)
		for i, r := range t.Rows {
			out[i] = f(r)
		}
		return out
	}

	out := table.New()
	if err := out.AddString("effect", getS(func(r Row) string { return r.Effect })); err != nil {
		return nil, err
	}
	if t.HasGroup {
		if err := out.AddString("group", getS(func(r Row) string { return r.Group })); err != nil {
			return nil, err
		}
	}
	if t.HasLevel {
		if err := out.AddString("level", getS(func(r Row) string { return r.Level })); err != nil {
			return nil, err
		}
	}
	if err := out.AddString("term", getS(func(r Row) string { return r.Term })); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		name string
		f    func(Row) float64
	}{
		{"estimate", func(r Row) float64 { return r.Estimate }},
		{"std.error", func(r Row) float64 { return r.StdError }},
		{"statistic", func(r Row) float64 { return r.Statistic }},
		{"p.value", func(r Row) float64 { return r.PValue }},
	} {
		if err := out.AddNumeric(col.name, get(col.f)); err != nil {
			return nil, err
		}
	}
	if t.HasConfInt {
		if err := out.AddNumeric("conf.low", get(func(r Row) float64 { return r.ConfLow })); err != nil {
			return nil, err
		}
		if err := out.AddNumeric("conf.high", get(func(r Row) float64 { return r.ConfHigh })); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Tidy produces the requested effect sub-tables and concatenates them in
// fixed, ran_pars, ran_modes order with a leading effect column.
func (m *Model) Tidy(opts ...TidyOption) (*TidyTable, error) {
	cfg, err := newTidyConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.wants(EffectRanModes) && cfg.confInt && cfg.confMethod != MethodWald {
		return nil, errors.NewUnsupportedOperationError("mixed.Tidy", "mixed",
			"conditional-mode intervals support the wald method only")
	}

	anyRandom := cfg.wants(EffectRanPars) || cfg.wants(EffectRanModes)
	out := &TidyTable{
		HasGroup:   anyRandom,
		HasLevel:   cfg.wants(EffectRanModes),
		HasConfInt: cfg.confInt,
	}

	if cfg.wants(EffectFixed) {
		rows, err := m.tidyFixed(cfg, anyRandom)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, rows...)
	}
	if cfg.wants(EffectRanPars) {
		rows, err := m.tidyRanPars(cfg)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, rows...)
	}
	if cfg.wants(EffectRanModes) {
		rows, err := m.tidyRanModes(cfg)
		if err != nil {
			return nil, err
		}
		out.Rows = append(out.Rows, rows...)
	}
	return out, nil
}

func (m *Model) tidyFixed(cfg *tidyConfig, withGroup bool) ([]Row, error) {
	var intervals []model.Interval
	if cfg.confInt {
		switch cfg.confMethod {
		case MethodProfile:
			if m.fixedProfiler == nil {
				return nil, errors.NewUnsupportedOperationError("mixed.Tidy", "mixed",
					"profile intervals require a profiler from the external fit")
			}
			var err error
			intervals, err = m.fixedProfiler(cfg.confLevel)
			if err != nil {
				return nil, err
			}
			if len(intervals) != len(m.fixedTerms) {
				return nil, errors.NewDimensionError("mixed.Tidy", len(m.fixedTerms), len(intervals), 0)
			}
		default:
			q := stdNormal.Quantile(1 - (1-cfg.confLevel)/2)
			intervals = make([]model.Interval, len(m.fixedCoef))
			for i, est := range m.fixedCoef {
				intervals[i] = model.Interval{Low: est - q*m.fixedSE[i], High: est + q*m.fixedSE[i]}
			}
		}
	}

	rows := make([]Row, len(m.fixedTerms))
	for i, term := range m.fixedTerms {
		est := m.fixedCoef[i]
		se := m.fixedSE[i]
		z := est / se
		row := Row{
			Effect:    EffectFixed,
			Term:      term,
			Estimate:  est,
			StdError:  se,
			Statistic: z,
			PValue:    2 * stdNormal.Survival(math.Abs(z)),
			ConfLow:   table.Missing,
			ConfHigh:  table.Missing,
		}
		if withGroup {
			// Keeps the group column uniform across the concatenation.
			row.Group = "fixed"
		}
		if intervals != nil {
			row.ConfLow = intervals[i].Low
			row.ConfHigh = intervals[i].High
		}
		rows[i] = row
	}
	return rows, nil
}

// tidyRanPars emits one row per variance/covariance parameter: per group the
// self terms then the cross terms, then the residual. Labels are composed
// from the crossed variable names under the scale's prefix; the residual term
// names no variable and defaults to "Observation".
func (m *Model) tidyRanPars(cfg *tidyConfig) ([]Row, error) {
	var rows []Row
	add := func(group, term string, estimate float64) {
		rows = append(rows, Row{
			Effect:    EffectRanPars,
			Group:     group,
			Term:      term,
			Estimate:  estimate,
			StdError:  table.Missing,
			Statistic: table.Missing,
			PValue:    table.Missing,
			ConfLow:   table.Missing,
			ConfHigh:  table.Missing,
		})
	}

	vcov := cfg.scales == ScaleVCov
	for _, g := range m.groups {
		for i, term := range g.Terms {
			est := g.SD[i]
			if vcov {
				est *= est
			}
			add(g.Name, cfg.prefixSD+"__"+term, est)
		}
		if g.Corr != nil {
			for i := 0; i < len(g.Terms); i++ {
				for j := i + 1; j < len(g.Terms); j++ {
					est := g.Corr.At(i, j)
					if vcov {
						est *= g.SD[i] * g.SD[j]
					}
					add(g.Name, cfg.prefixCor+"__"+g.Terms[i]+"."+g.Terms[j], est)
				}
			}
		}
	}
	if !math.IsNaN(m.sigma) {
		est := m.sigma
		if vcov {
			est *= est
		}
		add("Residual", cfg.prefixSD+"__Observation", est)
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFittedError("mixed", "random-effect variance parameters")
	}

	if cfg.confInt {
		switch cfg.confMethod {
		case MethodProfile:
			if m.ranParsProfiler == nil {
				return nil, errors.NewUnsupportedOperationError("mixed.Tidy", "mixed",
					"variance-parameter intervals require a profiler from the external fit")
			}
			intervals, err := m.ranParsProfiler(cfg.confLevel)
			if err != nil {
				return nil, err
			}
			if len(intervals) != len(rows) {
				return nil, errors.NewDimensionError("mixed.Tidy", len(rows), len(intervals), 0)
			}
			for i := range rows {
				rows[i].ConfLow = intervals[i].Low
				rows[i].ConfHigh = intervals[i].High
			}
		default:
			// The wald method has no standard errors for variance parameters;
			// bounds stay missing, as in the underlying inference routines.
			errors.Warn(errors.NewMissingDiagnosticWarning("mixed.Tidy",
				"conf.low/conf.high (ran_pars)", "mixed"))
		}
	}
	return rows, nil
}

// tidyRanModes emits one row per (level, term) pair of each grouping factor,
// estimate = conditional mode, standard error = square root of the mode's
// conditional variance.
func (m *Model) tidyRanModes(cfg *tidyConfig) ([]Row, error) {
	var q float64
	if cfg.confInt {
		q = stdNormal.Quantile(1 - (1-cfg.confLevel)/2)
	}

	var rows []Row
	for _, g := range m.groups {
		if g.Modes == nil {
			continue
		}
		for li, level := range g.Levels {
			for ti, term := range g.Terms {
				row := Row{
					Effect:    EffectRanModes,
					Group:     g.Name,
					Level:     level,
					Term:      term,
					Estimate:  g.Modes.At(li, ti),
					StdError:  table.Missing,
					Statistic: table.Missing,
					PValue:    table.Missing,
					ConfLow:   table.Missing,
					ConfHigh:  table.Missing,
				}
				if g.CondVar != nil {
					row.StdError = math.Sqrt(g.CondVar.At(li, ti))
					if cfg.confInt {
						row.ConfLow = row.Estimate - q*row.StdError
						row.ConfHigh = row.Estimate + q*row.StdError
					}
				}
				rows = append(rows, row)
			}
		}
	}
	if len(rows) == 0 {
		return nil, errors.NewNotFittedError("mixed", "conditional modes")
	}
	return rows, nil
}
