package behavior

import "round1/internal/model"

// LeanCalibrator re-centres lean on the candidate's own upright posture,
// since hipY - shoulderY depends on camera placement and body shape. The
// first frames samples with a pose fix the baseline; until then lean is
// taken against the running mean. Not safe for concurrent use.
type LeanCalibrator struct {
	frames int
	seen   int
	sum    float64
}

// NewLeanCalibrator calibrates over frames pose samples; 0 disables it
func NewLeanCalibrator(frames int) *LeanCalibrator {
	return &LeanCalibrator{frames: frames}
}

// Apply adjusts the sample's lean in place
func (c *LeanCalibrator) Apply(s *model.FrameSample) {
	if c.frames <= 0 || !s.PoseDetected {
		return
	}
	if c.seen < c.frames {
		c.seen++
		c.sum += s.Lean
	}
	s.Lean -= c.sum / float64(c.seen)
}
