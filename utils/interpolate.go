// SPDX-License-Identifier: EPL-2.0

package utils

// LinearInterpolate returns the point frac of the way from a to b.
func LinearInterpolate(a, b, frac float32) float32 {
	return a + (b-a)*frac
}

// CubicInterpolate evaluates a Catmull-Rom spline through four consecutive
// samples at position t in [0, 1] between p1 and p2.
func CubicInterpolate(p0, p1, p2, p3, t float32) float32 {
	c3 := 0.5 * (p3 - p0 + 3*(p1-p2))
	c2 := p0 - 2.5*p1 + 2*p2 - 0.5*p3
	c1 := 0.5 * (p2 - p0)

	return ((c3*t+c2)*t+c1)*t + p1
}
