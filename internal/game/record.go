package game

import "github.com/peterkuimelis/netrun/internal/log"

// recorder forwards events to the combat logger and collects the events of
// the step in progress, so step calls can return what they produced.
type recorder struct {
	logger log.EventLogger
	turn   int
	phase  Phase
	buf    []log.GameEvent
}

func newRecorder(logger log.EventLogger) *recorder {
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	return &recorder{logger: logger}
}

func (r *recorder) emit(e log.GameEvent) {
	r.logger.Log(e)
	if evs := r.logger.Events(); len(evs) > 0 {
		e = evs[len(evs)-1]
	}
	r.buf = append(r.buf, e)
}

// begin starts collecting a new step.
func (r *recorder) begin() {
	r.buf = nil
}

// end returns the events collected since begin.
func (r *recorder) end() []log.GameEvent {
	out := r.buf
	r.buf = nil
	return out
}

// t and p are shorthand for the current turn and phase label.
func (r *recorder) t() int    { return r.turn }
func (r *recorder) p() string { return r.phase.String() }
