// Package posture defines the contract for classifying a single
// observation into an instantaneous posture label.
package posture

import (
	"github.com/wikibird2024/intergrate-fall/internal/domain/model"
)

// Default classification thresholds. All of them are policy constants
// and overridable through options; the defaults are starting points,
// not tuned values.
const (
	defaultConfidenceFloor = 0.3  // keypoints below this are excluded
	defaultMinKeypoints    = 4    // fewer confident keypoints => Unknown
	defaultFlatAspectRatio = 1.4  // width > ratio*height => horizontal
	defaultDropVelocity    = 0.25 // box-heights per second, downward
	defaultSitRatio        = 0.45 // hip-to-ankle span under this fraction of box height => sitting
)

// Classifier turns one observation into a posture label. The previous
// observation for the same track, when available, supplies the
// velocity context for distinguishing a fall in progress from a person
// already lying down.
type Classifier interface {
	// Classify must be deterministic and side-effect free. prev may be
	// nil for the first observation of a track.
	Classify(obs model.Observation, prev *model.Observation) model.PostureLabel
}

// GeometricClassifier implements Classifier from bounding-box geometry
// and torso keypoint positions alone.
type GeometricClassifier struct {
	confidenceFloor float64
	minKeypoints    int
	flatAspectRatio float64
	dropVelocity    float64
	sitRatio        float64
}

// NewGeometricClassifier creates a classifier with configuration options.
func NewGeometricClassifier(opts ...Option) *GeometricClassifier {
	c := &GeometricClassifier{
		confidenceFloor: defaultConfidenceFloor,
		minKeypoints:    defaultMinKeypoints,
		flatAspectRatio: defaultFlatAspectRatio,
		dropVelocity:    defaultDropVelocity,
		sitRatio:        defaultSitRatio,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Classify derives a posture label from one observation.
func (c *GeometricClassifier) Classify(obs model.Observation, prev *model.Observation) model.PostureLabel {
	kps := c.confident(obs.Keypoints)
	if len(kps) < c.minKeypoints {
		return model.PostureLabel{Posture: model.PostureUnknown}
	}

	confidence := meanConfidence(kps)
	horizontal := c.isHorizontal(obs.Box)

	if horizontal {
		if c.droppingFast(obs, prev) {
			return model.PostureLabel{Posture: model.PostureFalling, Confidence: confidence}
		}
		return model.PostureLabel{Posture: model.PostureLyingDown, Confidence: confidence}
	}

	if c.isSitting(obs.Box, kps) {
		return model.PostureLabel{Posture: model.PostureSitting, Confidence: confidence}
	}
	return model.PostureLabel{Posture: model.PostureStanding, Confidence: confidence}
}

// confident filters out keypoints below the confidence floor.
func (c *GeometricClassifier) confident(kps map[string]model.Keypoint) map[string]model.Keypoint {
	out := make(map[string]model.Keypoint, len(kps))
	for name, kp := range kps {
		if kp.Confidence >= c.confidenceFloor {
			out[name] = kp
		}
	}
	return out
}

// isHorizontal reports whether the box is predominantly wider than tall.
func (c *GeometricClassifier) isHorizontal(box model.BoundingBox) bool {
	h := box.Height()
	if h <= 0 {
		return false
	}
	return box.Width() > c.flatAspectRatio*h
}

// droppingFast compares the torso centroid against the previous
// observation. Velocity is normalized by the previous box height so
// the threshold is independent of how close the person is to the
// camera. Y grows downward, so a positive velocity is a drop.
func (c *GeometricClassifier) droppingFast(obs model.Observation, prev *model.Observation) bool {
	if prev == nil {
		return false
	}
	dt := obs.Timestamp.Sub(prev.Timestamp).Seconds()
	if dt <= 0 {
		return false
	}
	cy, ok := torsoCentroidY(obs.Keypoints, c.confidenceFloor)
	if !ok {
		return false
	}
	prevCY, ok := torsoCentroidY(prev.Keypoints, c.confidenceFloor)
	if !ok {
		return false
	}
	scale := prev.Box.Height()
	if scale <= 0 {
		return false
	}
	velocity := (cy - prevCY) / scale / dt
	return velocity > c.dropVelocity
}

// isSitting separates sitting from standing by the vertical span
// between hips and ankles relative to the box height. A compressed
// lower body reads as sitting.
func (c *GeometricClassifier) isSitting(box model.BoundingBox, kps map[string]model.Keypoint) bool {
	hipY, ok := pairY(kps, model.JointLeftHip, model.JointRightHip)
	if !ok {
		return false
	}
	ankleY, ok := pairY(kps, model.JointLeftAnkle, model.JointRightAnkle)
	if !ok {
		return false
	}
	h := box.Height()
	if h <= 0 {
		return false
	}
	return (ankleY-hipY)/h < c.sitRatio
}

// torsoCentroidY averages the vertical position of shoulders and hips.
// Requires at least one confident shoulder and one confident hip.
func torsoCentroidY(kps map[string]model.Keypoint, floor float64) (float64, bool) {
	sum := 0.0
	n := 0
	shoulders := 0
	hips := 0
	for _, name := range []string{model.JointLeftShoulder, model.JointRightShoulder} {
		if kp, ok := kps[name]; ok && kp.Confidence >= floor {
			sum += kp.Y
			n++
			shoulders++
		}
	}
	for _, name := range []string{model.JointLeftHip, model.JointRightHip} {
		if kp, ok := kps[name]; ok && kp.Confidence >= floor {
			sum += kp.Y
			n++
			hips++
		}
	}
	if shoulders == 0 || hips == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// pairY averages the Y of a left/right joint pair; either side alone
// is accepted.
func pairY(kps map[string]model.Keypoint, left, right string) (float64, bool) {
	sum := 0.0
	n := 0
	if kp, ok := kps[left]; ok {
		sum += kp.Y
		n++
	}
	if kp, ok := kps[right]; ok {
		sum += kp.Y
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func meanConfidence(kps map[string]model.Keypoint) float64 {
	if len(kps) == 0 {
		return 0
	}
	sum := 0.0
	for _, kp := range kps {
		sum += kp.Confidence
	}
	return sum / float64(len(kps))
}
