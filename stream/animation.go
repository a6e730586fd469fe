package stream

// An Animation calculates the frame to show at a given runtime.
type Animation interface {
	CalculateFrame(runtimeMs int64) *Frame
}
