package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// ErrEmptyPayload is returned for messages without a body.
var ErrEmptyPayload = errors.New("empty payload")

// samplePayload is the JSON form of a telemetry message.
type samplePayload struct {
	// Value is the sampled number.
	Value *float64 `json:"value"`
	// Timestamp is the sample time in unix seconds; receive time is used when absent.
	Timestamp *float64 `json:"timestamp,omitempty"`
}

// decodePayload extracts a sample from a message body received at now.
func decodePayload(payload []byte, now time.Time) (float64, time.Time, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return 0, time.Time{}, ErrEmptyPayload
	}

	if payload[0] != '{' {
		value, err := strconv.ParseFloat(string(payload), 64)
		if err != nil {
			return 0, time.Time{}, fmt.Errorf("parse sample: %w", err)
		}

		return value, now, nil
	}

	var sample samplePayload
	if err := json.Unmarshal(payload, &sample); err != nil {
		return 0, time.Time{}, fmt.Errorf("decode sample: %w", err)
	}

	if sample.Value == nil {
		return 0, time.Time{}, fmt.Errorf("decode sample: %w", ErrEmptyPayload)
	}

	at := now
	if sample.Timestamp != nil && *sample.Timestamp > 0 {
		sec, frac := math.Modf(*sample.Timestamp)
		at = time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
	}

	return *sample.Value, at, nil
}
