package pca

import (
	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/table"
)

// Output modes. Tidy also accepts the aliases each fit's users know the
// matrices by: u/x/scores for samples, v/rotation/loadings for variables,
// d/pcs/eigenvalues for components.
const (
	ModeSamples    = "samples"
	ModeVariables  = "variables"
	ModeComponents = "components"
)

func normalizeMode(mode string) (string, error) {
	switch mode {
	case "", ModeSamples, "scores", "u", "x":
		return ModeSamples, nil
	case ModeVariables, "loadings", "rotation", "v":
		return ModeVariables, nil
	case ModeComponents, "pcs", "d", "eigenvalues":
		return ModeComponents, nil
	default:
		return "", errors.NewInvalidArgumentError("pca.Tidy", "mode", mode,
			"expected one of samples, variables, components (or an alias)")
	}
}

// Tidy reshapes a PCA result into one of three long-format tables selected by
// mode. The default (samples) emits one row per observation/component pair.
func Tidy(p *PCA, mode string) (*table.Table, error) {
	m, err := normalizeMode(mode)
	if err != nil {
		return nil, err
	}
	switch m {
	case ModeSamples:
		return TidyScores(p)
	case ModeVariables:
		return TidyLoadings(p)
	default:
		return componentTable(TidyComponents(p))
	}
}

// TidyScores emits one row per (observation, component) pair with columns
// {row, PC, value}, value taken from the score matrix.
func TidyScores(p *PCA) (*table.Table, error) {
	if p.scores == nil {
		return nil, errors.NewNotFittedError("pca", "score matrix")
	}
	return table.Long(p.scores, p.rowNames, "row", "PC", "value")
}

// TidyLoadings emits one row per (variable, component) pair with columns
// {column, PC, value}, value taken from the rotation matrix.
func TidyLoadings(p *PCA) (*table.Table, error) {
	return table.Long(p.rotation, p.varNames, "column", "PC", "value")
}

// ComponentRow summarizes one principal component.
type ComponentRow struct {
	PC         int
	StdDev     float64
	Percent    float64 // share of total variance, as a ratio
	Cumulative float64 // running share in component order
}

// TidyComponents summarizes each component's variance contribution. Percent is
// the squared standard deviation over the sum of squared standard deviations,
// so the final cumulative value is 1.
func TidyComponents(p *PCA) []ComponentRow {
	var total float64
	for _, sd := range p.sdev {
		total += sd * sd
	}

	rows := make([]ComponentRow, len(p.sdev))
	var cum float64
	for i, sd := range p.sdev {
		pct := sd * sd / total
		cum += pct
		rows[i] = ComponentRow{
			PC:         i + 1,
			StdDev:     sd,
			Percent:    pct,
			Cumulative: cum,
		}
	}
	return rows
}

func componentTable(rows []ComponentRow) (*table.Table, error) {
	pc := make([]float64, len(rows))
	sd := make([]float64, len(rows))
	pct := make([]float64, len(rows))
	cum := make([]float64, len(rows))
	for i, r := range rows {
		pc[i] = float64(r.PC)
		sd[i] = r.StdDev
		pct[i] = r.Percent
		cum[i] = r.Cumulative
	}

	out := table.New()
	if err := out.AddNumeric("PC", pc); err != nil {
		return nil, err
	}
	if err := out.AddNumeric("std.dev", sd); err != nil {
		return nil, err
	}
	if err := out.AddNumeric("percent", pct); err != nil {
		return nil, err
	}
	if err := out.AddNumeric("cumulative", cum); err != nil {
		return nil, err
	}
	return out, nil
}
