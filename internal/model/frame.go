package model

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrInvalidSnapshot is returned for snapshot images that are not base64
var ErrInvalidSnapshot = errors.New("snapshot image must be base64")

// Landmark is a normalized image-space point from a face or pose tracker.
// X and Y are in [0,1] with Y growing downwards.
type Landmark struct {
	X          float64 `json:"x" bson:"x"`
	Y          float64 `json:"y" bson:"y"`
	Z          float64 `json:"z" bson:"z"`
	Visibility float64 `json:"visibility,omitempty" bson:"visibility,omitempty"`
}

// FaceDetection is the face tracker output for one frame
type FaceDetection struct {
	Blendshapes map[string]float64 `json:"blendshapes"` // e.g. eyeLookUpLeft -> 0.12
	Landmarks   []Landmark         `json:"landmarks"`
}

// PoseDetection is the body tracker output for one frame
type PoseDetection struct {
	Landmarks []Landmark `json:"landmarks"`
}

// FrameDetection is what the capture loop sends for each processed frame.
// Either detection may be missing.
type FrameDetection struct {
	TimestampMS int64          `json:"timestampMs"`
	Face        *FaceDetection `json:"face,omitempty"`
	Pose        *PoseDetection `json:"pose,omitempty"`
}

// FrameSample holds the per-frame features derived from one FrameDetection
type FrameSample struct {
	TimestampMS  int64   `json:"timestampMs"`
	EyeContact   float64 `json:"eyeContact"` // 0-1
	BlinkEvent   bool    `json:"blinkEvent"`
	HeadX        float64 `json:"headX"`
	HeadY        float64 `json:"headY"`
	Lean         float64 `json:"lean"`         // positive = reclining back
	FaceDetected bool    `json:"faceDetected"` // false when EyeContact and head are fallbacks
	PoseDetected bool    `json:"poseDetected"` // false when Lean is the fallback
}

// FrameBatch is a batch of frames sent by the capture loop
type FrameBatch struct {
	Frames []FrameDetection `json:"frames"`
}

// SnapshotRequest carries one webcam snapshot for impression classification
type SnapshotRequest struct {
	Image       string `json:"image"` // base64 JPEG, with or without a data: URL prefix
	TimestampMS int64  `json:"timestampMs"`
}

// DecodeImage returns the raw image bytes
func (r SnapshotRequest) DecodeImage() ([]byte, error) {
	b64 := r.Image
	if i := strings.Index(b64, ","); strings.HasPrefix(b64, "data:") && i >= 0 {
		b64 = b64[i+1:]
	}
	image, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(image) == 0 {
		return nil, ErrInvalidSnapshot
	}
	return image, nil
}
