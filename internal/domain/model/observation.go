// Package model contains domain models passed between layers.
package model

import "time"

// Joint names follow the MediaPipe pose landmark naming used by the
// perception adapter. Only the joints the classifier consumes are
// listed; observations may carry more.
const (
	JointNose          = "nose"
	JointLeftShoulder  = "left_shoulder"
	JointRightShoulder = "right_shoulder"
	JointLeftHip       = "left_hip"
	JointRightHip      = "right_hip"
	JointLeftKnee      = "left_knee"
	JointRightKnee     = "right_knee"
	JointLeftAnkle     = "left_ankle"
	JointRightAnkle    = "right_ankle"
)

// Keypoint is a single named 2D skeletal joint with detector confidence.
// Coordinates are in pixels within the source frame.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// BoundingBox is an axis-aligned box in pixel coordinates with the
// origin at the top-left of the frame, so Y grows downward.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Width returns the horizontal extent of the box.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the vertical extent of the box.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// Observation is one frame's worth of pose data for one tracked person.
// It is consumed immediately by classification and not retained beyond
// the track's bounded rolling history.
type Observation struct {
	TrackID   int64               `json:"track_id"`
	Timestamp time.Time           `json:"ts"`
	Box       BoundingBox         `json:"box"`
	Keypoints map[string]Keypoint `json:"keypoints"`
}
