package reconcile

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Epoch values above this magnitude are taken as milliseconds.
const millisThreshold = 10_000_000_000

// Date layouts attempted for string timestamps, in order.
var instantLayouts = []string{
	"02-01-2006 15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04:05",
	"02-01-2006",
	"2006-01-02",
	"02.01.2006",
}

// ToInstant converts the heterogeneous timestamp representations the CRM
// emits (unix seconds, unix millis, several string date formats, ISO-8601)
// into a single comparable instant. Zero and unparseable values yield nil;
// the function never fails.
func ToInstant(raw any) *time.Time {
	switch v := raw.(type) {
	case nil:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		return v
	case int:
		return fromEpoch(float64(v))
	case int32:
		return fromEpoch(float64(v))
	case int64:
		return fromEpoch(float64(v))
	case float32:
		return fromEpoch(float64(v))
	case float64:
		return fromEpoch(v)
	case string:
		return parseInstantString(v)
	}
	return nil
}

func parseInstantString(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if epoch, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64); err == nil {
		return fromEpoch(epoch)
	}

	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		// A trailing Z means UTC; the engine compares naive instants.
		t = t.UTC()
		return &t
	}

	return nil
}

func fromEpoch(epoch float64) *time.Time {
	if epoch == 0 {
		return nil
	}
	if math.Abs(epoch) > millisThreshold {
		epoch /= 1000
	}

	sec, frac := math.Modf(epoch)
	t := time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
	return &t
}

// ToAmount converts string or numeric price representations into a float.
// Comma decimal separators are accepted; nil and unparseable values yield 0.
func ToAmount(raw any) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case *float64:
		if v == nil {
			return 0
		}
		return *v
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		if s == "" {
			return 0
		}
		amount, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return amount
	}
	return 0
}
