package alarm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseConditionKind_CaseInsensitive verifies names are trimmed and lower-cased before matching.
func TestParseConditionKind_CaseInsensitive(t *testing.T) {
	t.Parallel()

	cases := map[string]ConditionKind{
		" outOfRange ":     OutOfRange,
		"outofrange":       OutOfRange,
		"SUPERIORTHAN":     SuperiorThan,
		"\tInferiorThan\n": InferiorThan,
		"IncreasingStep":   IncreasingStep,
		"decreasingStep":   DecreasingStep,
	}

	for name, want := range cases {
		got, err := ParseConditionKind(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}

	_, err := ParseConditionKind("outside")
	require.ErrorIs(t, err, ErrUnknownCondition)
}

// TestParseCondition_Rejects covers every configuration error raised while parsing.
func TestParseCondition_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		condition string
		values    string
		want      error
	}{
		{"unknown kind", "between", "1:2", ErrUnknownCondition},
		{"decreasing step unsupported", "decreasingstep", "3:2:1", ErrUnsupportedCondition},
		{"range inverted", "outofrange", "2:1", ErrInvertedRange},
		{"range equal bounds", "outofrange", "1.5:1.5", ErrInvertedRange},
		{"range single value", "outofrange", "1", ErrMalformedValues},
		{"range three values", "outofrange", "1:2:3", ErrMalformedValues},
		{"range not numeric", "outofrange", "low:high", ErrMalformedValues},
		{"threshold empty", "superiorthan", "", ErrMalformedValues},
		{"threshold list", "inferiorthan", "1:2", ErrMalformedValues},
		{"steps equal", "increasingstep", "1.5:1.5:2", ErrUnsortedSteps},
		{"steps decreasing", "increasingstep", "3:2:1", ErrUnsortedSteps},
		{"steps NaN", "increasingstep", "1:nan", ErrMalformedValues},
		{"steps empty", "increasingstep", "", ErrMalformedValues},
		{"steps trailing separator", "increasingstep", "1:2:", ErrMalformedValues},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := ParseCondition(tc.condition, tc.values)
			require.Nil(t, c)
			require.ErrorIs(t, err, tc.want)
			require.True(t, IsConfigurationError(err))
		})
	}
}

// TestParseCondition_Parameters checks the parsed parameter shapes of each kind.
func TestParseCondition_Parameters(t *testing.T) {
	t.Parallel()

	c, err := ParseCondition("OutOfRange", " -1.5 : 2.5 ")
	require.NoError(t, err)
	require.Equal(t, OutOfRange, c.Kind())
	require.InDelta(t, -1.5, c.Min(), 0)
	require.InDelta(t, 2.5, c.Max(), 0)
	require.Zero(t, c.MaxLevel())

	c, err = ParseCondition("superiorthan", " 10 ")
	require.NoError(t, err)
	require.InDelta(t, 10, c.Min(), 0)
	require.InDelta(t, 10, c.Max(), 0)

	c, err = ParseCondition("increasingstep", "1.5:2.0:2.5:3.0")
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.0, 2.5, 3.0}, c.Steps())
	require.Equal(t, 4, c.MaxLevel())
	require.Equal(t, "1.5:2.0:2.5:3.0", c.Raw())

	// Steps returns a copy.
	steps := c.Steps()
	steps[0] = 100
	require.InDelta(t, 1.5, c.Steps()[0], 0)
}

// TestEvaluateIncreasingStep walks the level machine through its transitions.
func TestEvaluateIncreasingStep(t *testing.T) {
	t.Parallel()

	c, err := ParseCondition("increasingstep", "1.5:2.0:2.5:3.0")
	require.NoError(t, err)

	cases := []struct {
		name      string
		level     int
		sample    float64
		wantLevel int
		wantFire  bool
	}{
		{"floor stays quiet", 0, 1.0, 0, false},
		{"first step", 0, 1.5, 1, true},
		{"jump several levels", 0, 2.7, 3, true},
		{"jump to ceiling", 1, 3.2, 4, true},
		{"ceiling stays quiet", 4, 10.0, 4, false},
		{"inside current level", 2, 2.2, 2, false},
		{"descend one level", 3, 2.2, 2, false},
		{"descend to floor", 3, 1.0, 0, false},
		{"descend from ceiling", 4, 2.9, 3, false},
		{"exact lower border keeps level", 2, 2.0, 2, false},
	}

	for _, tc := range cases {
		level, message := c.Evaluate(tc.level, tc.sample, "mA")
		require.Equal(t, tc.wantLevel, level, tc.name)

		if tc.wantFire {
			require.Equal(t, "lower than 1.5mA", message, tc.name)
		} else {
			require.Empty(t, message, tc.name)
		}
	}
}

// TestConditions_ListsEveryKind checks the descriptors used to seed the conditions collection.
func TestConditions_ListsEveryKind(t *testing.T) {
	t.Parallel()

	descriptors := Conditions()
	require.Len(t, descriptors, 5)

	supported := 0

	for _, d := range descriptors {
		require.NotEmpty(t, d.Name)
		require.NotEmpty(t, d.Description)

		if d.Supported {
			supported++
		} else {
			require.Equal(t, DecreasingStep, d.Kind)
		}
	}

	require.Equal(t, 4, supported)
}

// TestFormatting pins the rendering of thresholds and measured values.
func TestFormatting(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1.5", formatThreshold(1.5))
	require.Equal(t, "2.0", formatThreshold(2))
	require.Equal(t, "-10.0", formatThreshold(-10))

	require.Equal(t, "2.7", formatMeasured(2.7))
	require.Equal(t, "3.0", formatMeasured(3))
	require.Equal(t, "3.142", formatMeasured(3.14159))
	require.Equal(t, "1.234e+04", formatMeasured(12345))
	require.Equal(t, "1e-05", formatMeasured(0.00001))
	require.Equal(t, "nan", formatMeasured(nan()))
}
