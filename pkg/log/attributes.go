// Standard attribute keys for tidier log records. Using these keys keeps the
// log stream filterable by operation and model family.

package log

// Operation context.
const (
	// OperationKey names the tidying operation being performed.
	// Standard values: "tidy", "augment", "glance".
	OperationKey = "tidy.operation"

	// ModelKindKey identifies the fitted-model family.
	// Standard values: "pca", "lm", "mlm", "glm", "mixed".
	ModelKindKey = "model.kind"

	// ComponentKey is the requested sub-model component of a mixed fit,
	// e.g. "cond".
	ComponentKey = "tidy.component"
)

// Output shape.
const (
	// RowsKey is the number of rows in the produced table.
	RowsKey = "table.rows"

	// ColumnsKey is the number of columns in the produced table.
	ColumnsKey = "table.columns"

	// EffectsKey lists the requested mixed-model effects.
	EffectsKey = "tidy.effects"

	// ModeKey is the requested PCA output mode.
	ModeKey = "tidy.mode"
)

// Inference options.
const (
	// ConfLevelKey is the requested confidence level.
	ConfLevelKey = "conf.level"

	// ConfMethodKey is the requested interval method ("wald" or "profile").
	ConfMethodKey = "conf.method"
)

// Timing.
const (
	// DurationMsKey is the elapsed time of an operation in milliseconds.
	DurationMsKey = "duration.ms"
)
