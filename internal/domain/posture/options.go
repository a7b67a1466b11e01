// Package posture defines the contract for classifying a single
// observation into an instantaneous posture label.
package posture

// Option applies a configuration option to the GeometricClassifier.
type Option func(*GeometricClassifier)

// WithConfidenceFloor sets the minimum keypoint confidence included in
// the geometry computation.
func WithConfidenceFloor(floor float64) Option {
	return func(c *GeometricClassifier) {
		if floor > 0 && floor < 1 {
			c.confidenceFloor = floor
		}
	}
}

// WithMinKeypoints sets how many confident keypoints an observation
// needs before it can be classified at all.
func WithMinKeypoints(n int) Option {
	return func(c *GeometricClassifier) {
		if n > 0 {
			c.minKeypoints = n
		}
	}
}

// WithFlatAspectRatio sets the width-to-height ratio above which the
// bounding box reads as horizontal.
func WithFlatAspectRatio(ratio float64) Option {
	return func(c *GeometricClassifier) {
		if ratio > 0 {
			c.flatAspectRatio = ratio
		}
	}
}

// WithDropVelocity sets the torso-centroid drop velocity, in box
// heights per second, above which a horizontal posture reads as a fall
// in progress rather than a person already lying down.
func WithDropVelocity(v float64) Option {
	return func(c *GeometricClassifier) {
		if v > 0 {
			c.dropVelocity = v
		}
	}
}

// WithSitRatio sets the hip-to-ankle span, as a fraction of box
// height, under which an upright posture reads as sitting.
func WithSitRatio(ratio float64) Option {
	return func(c *GeometricClassifier) {
		if ratio > 0 {
			c.sitRatio = ratio
		}
	}
}
