package verification

import (
	"context"
	"errors"
	"testing"

	"momentumAPI/internal/health"
	"momentumAPI/internal/types/challenge"
)

func fixedSample(value float64, err error) SampleFunc {
	return func(ctx context.Context, metric health.Metric) (float64, error) {
		return value, err
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestMetricThresholdMet(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodMetricThreshold,
		Metric:             "steps",
		Goal:               10000,
	}

	outcome, err := Evaluate(context.Background(), ch, Evidence{}, fixedSample(12000, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Success {
		t.Fatalf("expected success, got reason %q", outcome.Reason)
	}
}

func TestMetricThresholdNotMet(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodMetricThreshold,
		Metric:             "steps",
		Goal:               10000,
	}

	outcome, err := Evaluate(context.Background(), ch, Evidence{}, fixedSample(9000, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected failure below the goal")
	}
	if outcome.Reason == "" {
		t.Error("expected a reason for the miss")
	}
}

func TestMetricThresholdProviderError(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodMetricThreshold,
		Metric:             "steps",
		Goal:               10000,
	}

	_, err := Evaluate(context.Background(), ch, Evidence{}, fixedSample(0, errors.New("timeout")))
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestMetricThresholdBadConfig(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodMetricThreshold,
		Metric:             "not_a_metric",
		Goal:               10000,
	}

	_, err := Evaluate(context.Background(), ch, Evidence{}, fixedSample(12000, nil))
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestManualNumeric(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodManualNumeric,
		Goal:               10,
	}

	outcome, err := Evaluate(context.Background(), ch, Evidence{Number: floatPtr(15)}, nil)
	if err != nil || !outcome.Success {
		t.Fatalf("expected success, got %v / %+v", err, outcome)
	}

	outcome, err = Evaluate(context.Background(), ch, Evidence{Text: "7"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected failure below the goal")
	}
}

func TestManualNumericBadEvidence(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodManualNumeric,
		Goal:               10,
	}

	if _, err := Evaluate(context.Background(), ch, Evidence{Text: "plenty"}, nil); !errors.Is(err, ErrInvalidEvidence) {
		t.Errorf("expected ErrInvalidEvidence for non-numeric text, got %v", err)
	}
	if _, err := Evaluate(context.Background(), ch, Evidence{}, nil); !errors.Is(err, ErrInvalidEvidence) {
		t.Errorf("expected ErrInvalidEvidence for missing value, got %v", err)
	}
}

func TestTimerUsesGoalMinutes(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodTimer,
		GoalMinutes:        10,
	}

	outcome, err := Evaluate(context.Background(), ch, Evidence{Number: floatPtr(12)}, nil)
	if err != nil || !outcome.Success {
		t.Fatalf("expected success, got %v / %+v", err, outcome)
	}

	outcome, err = Evaluate(context.Background(), ch, Evidence{Number: floatPtr(5)}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected failure below the minute goal")
	}
}

func TestCheckbox(t *testing.T) {
	ch := &challenge.Challenge{VerificationMethod: challenge.MethodCheckbox}

	outcome, err := Evaluate(context.Background(), ch, Evidence{Checked: true}, nil)
	if err != nil || !outcome.Success {
		t.Fatalf("expected success, got %v / %+v", err, outcome)
	}

	outcome, err = Evaluate(context.Background(), ch, Evidence{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected failure for unchecked box")
	}
}

func TestPresenceMethods(t *testing.T) {
	for _, method := range []challenge.VerificationMethod{
		challenge.MethodManualText,
		challenge.MethodPhoto,
		challenge.MethodFile,
		challenge.MethodSocialPost,
	} {
		ch := &challenge.Challenge{VerificationMethod: method}

		outcome, err := Evaluate(context.Background(), ch, Evidence{Text: "evidence-ref"}, nil)
		if err != nil || !outcome.Success {
			t.Errorf("%s: expected success, got %v / %+v", method, err, outcome)
		}

		outcome, err = Evaluate(context.Background(), ch, Evidence{Text: "   "}, nil)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", method, err)
		} else if outcome.Success {
			t.Errorf("%s: expected failure for blank submission", method)
		}
	}
}

func TestLocationWithinRadius(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodLocation,
		TargetLat:          42.6977,
		TargetLon:          23.3219,
		RadiusMeters:       100,
	}

	outcome, err := Evaluate(context.Background(), ch, Evidence{
		Latitude:  floatPtr(42.6977),
		Longitude: floatPtr(23.3219),
	}, nil)
	if err != nil || !outcome.Success {
		t.Fatalf("expected success at the target point, got %v / %+v", err, outcome)
	}
}

func TestLocationOutsideRadius(t *testing.T) {
	ch := &challenge.Challenge{
		VerificationMethod: challenge.MethodLocation,
		TargetLat:          42.6977,
		TargetLon:          23.3219,
		// RadiusMeters zero falls back to the 100m default.
	}

	// Roughly a kilometer north.
	outcome, err := Evaluate(context.Background(), ch, Evidence{
		Latitude:  floatPtr(42.7067),
		Longitude: floatPtr(23.3219),
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Success {
		t.Fatal("expected failure a kilometer away")
	}
}

func TestLocationMissingCoordinates(t *testing.T) {
	ch := &challenge.Challenge{VerificationMethod: challenge.MethodLocation}

	_, err := Evaluate(context.Background(), ch, Evidence{Latitude: floatPtr(42.0)}, nil)
	if !errors.Is(err, ErrInvalidEvidence) {
		t.Fatalf("expected ErrInvalidEvidence, got %v", err)
	}
}

func TestUnknownMethod(t *testing.T) {
	ch := &challenge.Challenge{VerificationMethod: "telepathy"}

	_, err := Evaluate(context.Background(), ch, Evidence{}, nil)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}
}
