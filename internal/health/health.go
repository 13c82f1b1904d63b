package health

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Metric identifies a device health metric kind. Values are cumulative over a
// window (heart rate samples are averaged client-side before sync, so summing
// the day's samples still yields the value verification compares against).
type Metric string

const (
	MetricSteps          Metric = "steps"
	MetricHeartRate      Metric = "heart_rate"
	MetricActiveEnergy   Metric = "active_energy"
	MetricDistance       Metric = "distance"
	MetricWorkoutMinutes Metric = "workout_minutes"
)

func (m Metric) Valid() bool {
	switch m {
	case MetricSteps, MetricHeartRate, MetricActiveEnergy, MetricDistance, MetricWorkoutMinutes:
		return true
	}
	return false
}

type Window struct {
	Start time.Time
	End   time.Time
}

// Provider abstracts the device health-data source. Sample returns the
// cumulative value of a metric over the window. Implementations may block;
// callers bound them with a context deadline.
type Provider interface {
	Sample(ctx context.Context, userID uuid.UUID, metric Metric, window Window) (float64, error)
}

type SyncSample struct {
	Metric     Metric    `json:"metric"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

type SyncRequest struct {
	Samples []SyncSample `json:"samples"`
}
