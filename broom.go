package broom

import (
	"log/slog"
	"strings"
	"time"

	"github.com/eipi10/broom/core/model"
	"github.com/eipi10/broom/pkg/errors"
	"github.com/eipi10/broom/pkg/log"
	"github.com/eipi10/broom/table"
)

// Tidy converts a fitted model's component-level results into a tidy table:
// one row per coefficient, per component, or per random-effect parameter,
// depending on the model family and options. The model enters as an opaque
// adapter; dispatch is by the capability interfaces in core/model.
func Tidy(fitted any, opts ...Option) (tbl *table.Table, err error) {
	defer errors.Recover(&err, "broom.Tidy")
	start := time.Now()

	t, ok := fitted.(model.Tidier)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoTidier, "broom.Tidy: %T", fitted)
	}
	o := buildOptions(opts)
	tbl, err = t.TidyTable(o.tidy)
	if err != nil {
		return nil, err
	}
	args := []any{
		log.OperationKey, "tidy",
		log.ModelKindKey, string(t.ModelKind()),
		log.RowsKey, tbl.NumRows(),
		log.ColumnsKey, tbl.NumCols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	if o.tidy.Mode != "" {
		args = append(args, log.ModeKey, o.tidy.Mode)
	}
	if len(o.tidy.Effects) > 0 {
		args = append(args, log.EffectsKey, strings.Join(o.tidy.Effects, ","))
	}
	if o.tidy.Component != "" {
		args = append(args, log.ComponentKey, o.tidy.Component)
	}
	if o.tidy.ConfInt {
		level := o.tidy.ConfLevel
		if level == 0 {
			level = 0.95
		}
		method := o.tidy.ConfMethod
		if method == "" {
			method = "wald"
		}
		args = append(args, log.ConfLevelKey, level, log.ConfMethodKey, method)
	}
	slog.Debug("tidied model", args...)
	return tbl, nil
}

// Augment returns the model's observation-level results: the supplied data
// (or new data) with diagnostic columns appended, one row per observation in
// input order.
func Augment(fitted any, opts ...Option) (tbl *table.Table, err error) {
	defer errors.Recover(&err, "broom.Augment")
	start := time.Now()

	a, ok := fitted.(model.Augmenter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoTidier, "broom.Augment: %T", fitted)
	}
	tbl, err = a.AugmentTable(buildOptions(opts).augment)
	if err != nil {
		return nil, err
	}
	slog.Debug("augmented data",
		log.OperationKey, "augment",
		log.ModelKindKey, string(a.ModelKind()),
		log.RowsKey, tbl.NumRows(),
		log.ColumnsKey, tbl.NumCols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return tbl, nil
}

// Glance returns the model's one-row goodness-of-fit summary.
func Glance(fitted any) (tbl *table.Table, err error) {
	defer errors.Recover(&err, "broom.Glance")
	start := time.Now()

	g, ok := fitted.(model.Glancer)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoTidier, "broom.Glance: %T", fitted)
	}
	tbl, err = g.GlanceTable()
	if err != nil {
		return nil, err
	}
	slog.Debug("glanced at model",
		log.OperationKey, "glance",
		log.ModelKindKey, string(g.ModelKind()),
		log.ColumnsKey, tbl.NumCols(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return tbl, nil
}
