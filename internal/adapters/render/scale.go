package render

// Scale maps a data interval linearly onto a pixel interval. A reversed
// range inverts the axis.
type Scale struct {
	d0, d1 float64
	r0, r1 float64
}

// NewScale creates a scale from [d0,d1] to [r0,r1].
func NewScale(d0, d1, r0, r1 float64) Scale {
	return Scale{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Apply maps v. A degenerate domain maps everything to the range start.
func (s Scale) Apply(v float64) float64 {
	if s.d1 == s.d0 {
		return s.r0
	}
	return s.r0 + (v-s.d0)/(s.d1-s.d0)*(s.r1-s.r0)
}
