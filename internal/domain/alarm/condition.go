package alarm

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ConditionKind enumerates the alarm conditions an entry can be configured with.
type ConditionKind uint8

const (
	// ConditionUnknown is the zero value and never valid for an entry.
	ConditionUnknown ConditionKind = iota
	// OutOfRange fires when the value leaves [min, max].
	OutOfRange
	// SuperiorThan fires when the value rises above a threshold.
	SuperiorThan
	// InferiorThan fires when the value drops below a threshold.
	InferiorThan
	// IncreasingStep fires each time the value climbs to a higher step level.
	IncreasingStep
	// DecreasingStep is recognised by name but not implemented.
	DecreasingStep
)

// stepSeparator separates numbers inside alarm_values and addresses inside emails.
const stepSeparator = ":"

// conditionNames holds the canonical lower-case names used in configuration rows.
//
//nolint:gochecknoglobals // Read-only lookup table.
var conditionNames = map[ConditionKind]string{
	OutOfRange:     "outofrange",
	SuperiorThan:   "superiorthan",
	InferiorThan:   "inferiorthan",
	IncreasingStep: "increasingstep",
	DecreasingStep: "decreasingstep",
}

// String returns the canonical configuration name of the kind.
func (k ConditionKind) String() string {
	if name, ok := conditionNames[k]; ok {
		return name
	}

	return "unknown"
}

// ParseConditionKind matches a configuration name case-insensitively, ignoring
// surrounding whitespace.
func ParseConditionKind(name string) (ConditionKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	for kind, candidate := range conditionNames {
		if candidate == normalized {
			return kind, nil
		}
	}

	return ConditionUnknown, fmt.Errorf("%w: %q", ErrUnknownCondition, name)
}

// ConditionDescriptor documents a condition for the persisted conditions collection.
type ConditionDescriptor struct {
	// Kind is the condition kind.
	Kind ConditionKind
	// Name is the canonical configuration name.
	Name string
	// Description explains when the condition fires.
	Description string
	// Format describes the expected alarm_values encoding.
	Format string
	// Supported is false for kinds that cannot be used to build entries.
	Supported bool
}

// evaluateFunc maps (step level, sample) to the next step level and an optional
// violation message. An empty message means no violation.
type evaluateFunc func(c *Condition, level int, sample float64, unit string) (int, string)

// parseFunc fills the condition parameters from the raw alarm_values string.
type parseFunc func(c *Condition, raw string) error

// kindSpec binds a kind to its parameter parser and evaluator.
type kindSpec struct {
	description string
	format      string
	parse       parseFunc
	evaluate    evaluateFunc
}

// registry lists every supported condition. DecreasingStep is deliberately absent.
//
//nolint:gochecknoglobals // Read-only lookup table.
var registry = map[ConditionKind]kindSpec{
	OutOfRange: {
		description: "value outside the [min, max] interval",
		format:      "min:max",
		parse:       parseRange,
		evaluate:    evaluateOutOfRange,
	},
	SuperiorThan: {
		description: "value above the threshold",
		format:      "threshold",
		parse:       parseThreshold,
		evaluate:    evaluateSuperiorThan,
	},
	InferiorThan: {
		description: "value below the threshold",
		format:      "threshold",
		parse:       parseThreshold,
		evaluate:    evaluateInferiorThan,
	},
	IncreasingStep: {
		description: "value climbing to a higher step level",
		format:      "step1:step2:...:stepN",
		parse:       parseSteps,
		evaluate:    evaluateIncreasingStep,
	},
}

// Conditions returns descriptors for every known kind, supported or not, in kind order.
func Conditions() []ConditionDescriptor {
	kinds := []ConditionKind{OutOfRange, SuperiorThan, InferiorThan, IncreasingStep, DecreasingStep}
	result := make([]ConditionDescriptor, 0, len(kinds))

	for _, kind := range kinds {
		descriptor := ConditionDescriptor{
			Kind: kind,
			Name: kind.String(),
		}

		if spec, ok := registry[kind]; ok {
			descriptor.Description = spec.description
			descriptor.Format = spec.format
			descriptor.Supported = true
		} else {
			descriptor.Description = "value descending through step levels (not supported)"
			descriptor.Format = "step1:step2:...:stepN"
		}

		result = append(result, descriptor)
	}

	return result
}

// Condition is a validated condition bound to its parameters.
// It is immutable; the mutable step level lives in the Entry.
type Condition struct {
	// kind selects the evaluator.
	kind ConditionKind
	// raw is the alarm_values string as configured.
	raw string
	// alarmMin is the lower bound. Single-threshold kinds store the threshold here too.
	alarmMin float64
	// alarmMax is the upper bound. Single-threshold kinds store the threshold here too.
	alarmMax float64
	// steps are the strictly increasing thresholds of IncreasingStep.
	steps []float64
	// evaluate is the kind's evaluation function, resolved once.
	evaluate evaluateFunc
}

// ParseCondition validates a condition name and its alarm values.
// Failures are returned as *ConfigurationError.
func ParseCondition(name, values string) (*Condition, error) {
	kind, err := ParseConditionKind(name)
	if err != nil {
		return nil, &ConfigurationError{Field: "condition", Value: name, Err: ErrUnknownCondition}
	}

	spec, ok := registry[kind]
	if !ok {
		return nil, &ConfigurationError{Field: "condition", Value: name, Err: ErrUnsupportedCondition}
	}

	c := &Condition{
		kind:     kind,
		raw:      strings.TrimSpace(values),
		evaluate: spec.evaluate,
	}

	if err = spec.parse(c, c.raw); err != nil {
		return nil, &ConfigurationError{Field: "alarm_values", Value: values, Err: err}
	}

	return c, nil
}

// Kind returns the condition kind.
func (c *Condition) Kind() ConditionKind { return c.kind }

// Raw returns the alarm values as configured.
func (c *Condition) Raw() string { return c.raw }

// Min returns the lower bound (or the threshold for single-threshold kinds).
func (c *Condition) Min() float64 { return c.alarmMin }

// Max returns the upper bound (or the threshold for single-threshold kinds).
func (c *Condition) Max() float64 { return c.alarmMax }

// Steps returns a copy of the step thresholds.
func (c *Condition) Steps() []float64 { return slices.Clone(c.steps) }

// MaxLevel returns the highest reachable step level, zero for non-step kinds.
func (c *Condition) MaxLevel() int { return len(c.steps) }

// Evaluate applies the condition to a sample at the given step level.
func (c *Condition) Evaluate(level int, sample float64, unit string) (int, string) {
	return c.evaluate(c, level, sample, unit)
}

// parseFloat parses a single configured number, rejecting NaN.
func parseFloat(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMalformedValues, err)
	}

	if math.IsNaN(value) {
		return 0, fmt.Errorf("%w: NaN is not a threshold", ErrMalformedValues)
	}

	return value, nil
}

// parseRange reads "min:max" and requires min < max.
func parseRange(c *Condition, raw string) error {
	parts := strings.Split(raw, stepSeparator)
	if len(parts) != 2 { //nolint:mnd // Exactly min and max.
		return fmt.Errorf("%w: expected min:max", ErrMalformedValues)
	}

	low, err := parseFloat(parts[0])
	if err != nil {
		return err
	}

	high, err := parseFloat(parts[1])
	if err != nil {
		return err
	}

	if low >= high {
		return ErrInvertedRange
	}

	c.alarmMin, c.alarmMax = low, high

	return nil
}

// parseThreshold reads a single number and stores it as both bounds.
func parseThreshold(c *Condition, raw string) error {
	threshold, err := parseFloat(raw)
	if err != nil {
		return err
	}

	c.alarmMin, c.alarmMax = threshold, threshold

	return nil
}

// parseSteps reads one or more strictly increasing numbers.
func parseSteps(c *Condition, raw string) error {
	parts := strings.Split(raw, stepSeparator)
	steps := make([]float64, 0, len(parts))

	for _, part := range parts {
		step, err := parseFloat(part)
		if err != nil {
			return err
		}

		if n := len(steps); n > 0 && steps[n-1] >= step {
			return ErrUnsortedSteps
		}

		steps = append(steps, step)
	}

	c.steps = steps

	return nil
}

func evaluateOutOfRange(c *Condition, level int, sample float64, unit string) (int, string) {
	if sample < c.alarmMin || sample > c.alarmMax {
		return level, fmt.Sprintf("from %s%s to %s%s", formatThreshold(c.alarmMin), unit, formatThreshold(c.alarmMax), unit)
	}

	return level, ""
}

// evaluateSuperiorThan keeps the historical message, which names the lower bound field.
// Both bounds hold the same threshold, so the rendered number is the configured one.
func evaluateSuperiorThan(c *Condition, level int, sample float64, unit string) (int, string) {
	if sample > c.alarmMax {
		return level, fmt.Sprintf("lower than %s%s", formatThreshold(c.alarmMin), unit)
	}

	return level, ""
}

func evaluateInferiorThan(c *Condition, level int, sample float64, unit string) (int, string) {
	if sample < c.alarmMin {
		return level, fmt.Sprintf("higher than %s%s", formatThreshold(c.alarmMin), unit)
	}

	return level, ""
}

// evaluateIncreasingStep runs the step level machine. Only upward moves produce a
// message; downward moves update the level silently.
func evaluateIncreasingStep(c *Condition, level int, sample float64, unit string) (int, string) {
	maxLevel := len(c.steps)

	switch {
	case level < maxLevel && sample >= c.steps[level]:
		return c.levelFor(sample), fmt.Sprintf("lower than %s%s", formatThreshold(c.steps[0]), unit)
	case level > 0 && sample < c.steps[level-1]:
		return c.levelFor(sample), ""
	default:
		return level, ""
	}
}

// levelFor returns the smallest index whose threshold is above the sample,
// or MaxLevel when the sample reaches the last threshold.
func (c *Condition) levelFor(sample float64) int {
	for i, step := range c.steps {
		if sample < step {
			return i
		}
	}

	return len(c.steps)
}

// formatThreshold renders a configured number the way the legacy mails did:
// integral values keep a trailing ".0".
func formatThreshold(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

// formatMeasured renders a sample with four significant digits.
func formatMeasured(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(v, 'g', 4, 64) //nolint:mnd // Four significant digits.
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}
