package tracker

import (
	"go.uber.org/zap"
)

// track is the filter state of a single subject
type track struct {
	state DepthState
	// lost is the number of consecutive frames without a measurement
	lost int
}

// DepthTracker smooths the root depth of several subjects across frames
type DepthTracker struct {
	filter *KalmanFilter
	tracks map[int]*track
	// maxLost is the number of frames a subject is kept without measurements
	maxLost int
	log     *zap.Logger
}

// Option configures a DepthTracker
type Option func(*DepthTracker)

// WithMaxLost sets the number of frames a subject survives without a
// measurement before being dropped
func WithMaxLost(n int) Option {
	return func(t *DepthTracker) {
		t.maxLost = n
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(t *DepthTracker) {
		if log != nil {
			t.log = log
		}
	}
}

// NewDepthTracker returns a tracker using a constant velocity filter with the
// given process noise
func NewDepthTracker(processNoise float64, opts ...Option) *DepthTracker {

	t := &DepthTracker{
		filter:  NewKalmanFilter(processNoise),
		tracks:  make(map[int]*track),
		maxLost: 30,
		log:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Measurement is a resolved root depth for a subject in the current frame
type Measurement struct {
	ID    int
	Depth float64
	Std   float64
}

// Update advances every track by one frame and corrects the tracks that have
// a measurement.  It returns the filtered state of each measured subject keyed
// by subject ID.  Measurements the filter rejects are logged and the subject
// keeps its predicted state.
func (t *DepthTracker) Update(measurements []Measurement) map[int]DepthState {

	out := make(map[int]DepthState, len(measurements))

	for _, tr := range t.tracks {
		tr.state = t.filter.Predict(tr.state)
		tr.lost++
	}

	for _, m := range measurements {
		tr, ok := t.tracks[m.ID]

		if !ok {
			state, err := t.filter.Initiate(m.Depth, m.Std)

			if err != nil {
				t.log.Debug("skipping subject without depth",
					zap.Int("id", m.ID), zap.Error(err))
				continue
			}

			t.tracks[m.ID] = &track{state: state}
			out[m.ID] = state
			continue
		}

		state, err := t.filter.Update(tr.state, m.Depth, m.Std)

		if err != nil {
			t.log.Warn("depth measurement rejected",
				zap.Int("id", m.ID), zap.Error(err))
		} else {
			tr.state = state
			tr.lost = 0
		}

		out[m.ID] = tr.state
	}

	for id, tr := range t.tracks {
		if tr.lost > t.maxLost {
			delete(t.tracks, id)
			delete(out, id)
		}
	}

	return out
}

// State returns the current state of a subject
func (t *DepthTracker) State(id int) (DepthState, bool) {

	tr, ok := t.tracks[id]

	if !ok {
		return DepthState{}, false
	}

	return tr.state, true
}

// Len returns the number of tracked subjects
func (t *DepthTracker) Len() int {
	return len(t.tracks)
}

// Reset removes all tracks
func (t *DepthTracker) Reset() {
	t.tracks = make(map[int]*track)
}
