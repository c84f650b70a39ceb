package sequence

import "fmt"

// Range is an inclusive frame range. Min is never greater than Max.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// rangeOf returns the span of frames, or false when frames is empty.
func rangeOf(frames []int) (Range, bool) {
	if len(frames) == 0 {
		return Range{}, false
	}
	r := Range{Min: frames[0], Max: frames[0]}
	for _, f := range frames[1:] {
		r.Min = min(r.Min, f)
		r.Max = max(r.Max, f)
	}
	return r, true
}

// Len returns the number of frames the range spans.
func (r Range) Len() int {
	return r.Max - r.Min + 1
}

func (r Range) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}
