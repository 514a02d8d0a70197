// Package behavior turns raw face and pose detections into interview
// behavior signals: per-frame features, windowed summaries and the
// combined impression scores shown to recruiters.
package behavior

import (
	"round1/internal/config"
	"round1/internal/model"
)

// Face mesh and pose landmark indices used by the extractor
const (
	noseTipIndex       = 1
	leftShoulderIndex  = 11
	rightShoulderIndex = 12
	leftHipIndex       = 23
	rightHipIndex      = 24
)

// Fallbacks when a detector saw nothing
const (
	NoFaceEyeContact = 0.5
	noFaceHeadX      = 0.5
	noFaceHeadY      = 0.5
)

// gazeBlendshapes are the eight gaze-deviation coefficients; zero on all of them means looking at the camera
var gazeBlendshapes = []string{
	"eyeLookUpLeft", "eyeLookUpRight",
	"eyeLookDownLeft", "eyeLookDownRight",
	"eyeLookInLeft", "eyeLookInRight",
	"eyeLookOutLeft", "eyeLookOutRight",
}

// Extractor derives a FrameSample from a single frame's detections. It is
// stateless and safe for concurrent use.
type Extractor struct {
	gazeScale      float64
	blinkThreshold float64
	leanBaseline   float64
}

// NewExtractor creates an extractor with the configured tuning constants
func NewExtractor(cfg config.BehaviorConfig) *Extractor {
	return &Extractor{
		gazeScale:      cfg.GazeScale,
		blinkThreshold: cfg.BlinkThreshold,
		leanBaseline:   cfg.LeanBaseline,
	}
}

// Extract never fails: missing detections produce the documented fallbacks.
func (e *Extractor) Extract(frame model.FrameDetection) model.FrameSample {
	sample := model.FrameSample{
		TimestampMS: frame.TimestampMS,
		EyeContact:  NoFaceEyeContact,
		HeadX:       noFaceHeadX,
		HeadY:       noFaceHeadY,
	}

	if face := frame.Face; face != nil {
		sample.FaceDetected = true
		sample.EyeContact = e.eyeContact(face.Blendshapes)
		sample.BlinkEvent = face.Blendshapes["eyeBlinkLeft"]+face.Blendshapes["eyeBlinkRight"] > e.blinkThreshold
		if lm, ok := headLandmark(face.Landmarks); ok {
			sample.HeadX, sample.HeadY = lm.X, lm.Y
		}
	}

	if pose := frame.Pose; pose != nil {
		sample.Lean, sample.PoseDetected = e.lean(pose.Landmarks)
	}

	return sample
}

// eyeContact inverts the scaled mean gaze deviation into [0,1]
func (e *Extractor) eyeContact(blendshapes map[string]float64) float64 {
	var sum float64
	var n int
	for _, name := range gazeBlendshapes {
		if v, ok := blendshapes[name]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return NoFaceEyeContact
	}
	return clamp(1-(sum/float64(n))*e.gazeScale, 0, 1)
}

// lean is hipMid.Y - shoulderMid.Y relative to the configured baseline. Zero without both pairs.
func (e *Extractor) lean(landmarks []model.Landmark) (float64, bool) {
	if len(landmarks) <= rightHipIndex {
		return 0, false
	}
	shoulderY := (landmarks[leftShoulderIndex].Y + landmarks[rightShoulderIndex].Y) / 2
	hipY := (landmarks[leftHipIndex].Y + landmarks[rightHipIndex].Y) / 2
	return hipY - shoulderY - e.leanBaseline, true
}

func headLandmark(landmarks []model.Landmark) (model.Landmark, bool) {
	switch {
	case len(landmarks) > noseTipIndex:
		return landmarks[noseTipIndex], true
	case len(landmarks) == 1:
		return landmarks[0], true
	}
	return model.Landmark{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
