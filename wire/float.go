package wire

import "math"

func math32FromBits(x uint32) float32 { return math.Float32frombits(x) }

func math64FromBits(x uint64) float64 { return math.Float64frombits(x) }
