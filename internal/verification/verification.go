package verification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/umahmood/haversine"

	"momentumAPI/internal/health"
	"momentumAPI/internal/types/challenge"
)

var (
	// ErrProviderUnavailable means the metric sample could not be fetched.
	// Transient; the caller may retry. Distinct from "goal not met".
	ErrProviderUnavailable = errors.New("metric provider unavailable")

	// ErrInvalidEvidence means the submitted evidence could not be parsed for
	// the challenge's verification method. Retrying without new input is
	// pointless.
	ErrInvalidEvidence = errors.New("invalid evidence")

	// ErrInvalidConfiguration means the challenge's method config is
	// incomplete (e.g. metric threshold without a metric).
	ErrInvalidConfiguration = errors.New("invalid challenge configuration")
)

// Evidence is the method-specific payload submitted with a verification
// attempt. Only the fields matching the challenge's method are consulted.
type Evidence struct {
	Text      string   `json:"text,omitempty"`
	Number    *float64 `json:"number,omitempty"`
	Checked   bool     `json:"checked,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type Outcome struct {
	Success bool
	Reason  string
}

// SampleFunc fetches the cumulative metric value for the caller's current
// local day window. Bound by the orchestrator to a user and window.
type SampleFunc func(ctx context.Context, metric health.Metric) (float64, error)

// Evaluate runs the strategy matching the challenge's verification method.
// Pure: it never writes state. A false Outcome with a Reason is an expected
// result (goal not met), not an error.
func Evaluate(ctx context.Context, ch *challenge.Challenge, ev Evidence, sample SampleFunc) (Outcome, error) {
	switch ch.VerificationMethod {
	case challenge.MethodMetricThreshold:
		return evaluateMetricThreshold(ctx, ch, sample)
	case challenge.MethodManualNumeric:
		return evaluateNumeric(ev, ch.Goal)
	case challenge.MethodTimer:
		return evaluateNumeric(ev, float64(ch.GoalMinutes))
	case challenge.MethodLocation:
		return evaluateLocation(ch, ev)
	case challenge.MethodManualText, challenge.MethodPhoto, challenge.MethodFile, challenge.MethodSocialPost:
		// Presence check only: any non-empty submission passes. Content is
		// never validated.
		if strings.TrimSpace(ev.Text) == "" {
			return Outcome{Success: false, Reason: "no evidence submitted"}, nil
		}
		return Outcome{Success: true}, nil
	case challenge.MethodCheckbox:
		if !ev.Checked {
			return Outcome{Success: false, Reason: "checkbox not checked"}, nil
		}
		return Outcome{Success: true}, nil
	default:
		return Outcome{}, fmt.Errorf("%w: unknown verification method %q", ErrInvalidConfiguration, ch.VerificationMethod)
	}
}

func evaluateMetricThreshold(ctx context.Context, ch *challenge.Challenge, sample SampleFunc) (Outcome, error) {
	metric := health.Metric(ch.Metric)
	if !metric.Valid() || ch.Goal <= 0 {
		return Outcome{}, fmt.Errorf("%w: metric threshold needs a metric and a positive goal", ErrInvalidConfiguration)
	}
	if sample == nil {
		return Outcome{}, ErrProviderUnavailable
	}

	value, err := sample(ctx, metric)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if value < ch.Goal {
		return Outcome{Success: false, Reason: fmt.Sprintf("%.0f of %.0f %s", value, ch.Goal, ch.Metric)}, nil
	}
	return Outcome{Success: true}, nil
}

func evaluateNumeric(ev Evidence, goal float64) (Outcome, error) {
	if goal <= 0 {
		return Outcome{}, fmt.Errorf("%w: numeric verification needs a positive goal", ErrInvalidConfiguration)
	}

	var value float64
	switch {
	case ev.Number != nil:
		value = *ev.Number
	case strings.TrimSpace(ev.Text) != "":
		parsed, err := strconv.ParseFloat(strings.TrimSpace(ev.Text), 64)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: %q is not a number", ErrInvalidEvidence, ev.Text)
		}
		value = parsed
	default:
		return Outcome{}, fmt.Errorf("%w: no numeric value submitted", ErrInvalidEvidence)
	}

	if value < goal {
		return Outcome{Success: false, Reason: fmt.Sprintf("%.0f of %.0f", value, goal)}, nil
	}
	return Outcome{Success: true}, nil
}

func evaluateLocation(ch *challenge.Challenge, ev Evidence) (Outcome, error) {
	if ev.Latitude == nil || ev.Longitude == nil {
		return Outcome{}, fmt.Errorf("%w: location verification needs latitude and longitude", ErrInvalidEvidence)
	}

	radius := ch.RadiusMeters
	if radius <= 0 {
		radius = challenge.DefaultLocationRadiusMeters
	}

	target := haversine.Coord{Lat: ch.TargetLat, Lon: ch.TargetLon}
	actual := haversine.Coord{Lat: *ev.Latitude, Lon: *ev.Longitude}
	_, km := haversine.Distance(target, actual)
	meters := km * 1000

	if meters > radius {
		return Outcome{Success: false, Reason: fmt.Sprintf("%.0fm from the check-in point", meters)}, nil
	}
	return Outcome{Success: true}, nil
}
