package alarm

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Event is a notification request produced by an entry. It is a value object:
// once handed to the queue nobody mutates it.
type Event struct {
	// ID uniquely identifies the event in logs and outbound payloads.
	ID string `json:"id"`
	// PVName is the process variable that violated its condition.
	PVName string `json:"pvname"`
	// SpecifiedValueMessage describes the expected value, e.g. "from 1.0V to 2.0V".
	SpecifiedValueMessage string `json:"specified_value_message"`
	// Unit is the engineering unit of the PV.
	Unit string `json:"unit"`
	// Warning is the operator-provided warning text.
	Warning string `json:"warning"`
	// Subject is the notification subject line.
	Subject string `json:"subject"`
	// Recipients are the notification addresses.
	Recipients []string `json:"emails"`
	// Condition is the condition kind that fired.
	Condition ConditionKind `json:"-"`
	// ConditionName is Condition rendered for outbound payloads.
	ConditionName string `json:"condition"`
	// ValueMeasured is the sample formatted with four significant digits.
	ValueMeasured string `json:"value_measured"`
	// Timestamp is the sample time that triggered the event.
	Timestamp time.Time `json:"timestamp"`
}

// newEvent builds an event from an entry snapshot.
func newEvent(e *Entry, message string, sample float64, at time.Time) Event {
	return Event{
		ID:                    uuid.NewString(),
		PVName:                e.pvName,
		SpecifiedValueMessage: message,
		Unit:                  e.unit,
		Warning:               e.warningMessage,
		Subject:               e.subject,
		Recipients:            slices.Clone(e.recipients),
		Condition:             e.condition.Kind(),
		ConditionName:         e.condition.Kind().String(),
		ValueMeasured:         formatMeasured(sample),
		Timestamp:             at,
	}
}

// Body renders the plain-text notification body.
func (e Event) Body() string {
	var b strings.Builder

	if e.Warning != "" {
		b.WriteString(e.Warning)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "PV: %s\n", e.PVName)
	fmt.Fprintf(&b, "Measured value: %s %s\n", e.ValueMeasured, e.Unit)
	fmt.Fprintf(&b, "Specified value: %s\n", e.SpecifiedValueMessage)
	fmt.Fprintf(&b, "Condition: %s\n", e.ConditionName)
	fmt.Fprintf(&b, "Time: %s\n", e.Timestamp.Format(time.RFC3339))

	return b.String()
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return fmt.Sprintf("<Event pvname=%q condition=%s value=%s specified=%q emails=%s>",
		e.PVName, e.ConditionName, e.ValueMeasured, e.SpecifiedValueMessage, strings.Join(e.Recipients, stepSeparator))
}
