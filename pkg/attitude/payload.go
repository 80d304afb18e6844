package attitude

import (
	"encoding/binary"
	"math"
)

// Data IDs of payload records.
const (
	DataIDRates byte = 0x20
	DataIDEuler byte = 0x40
)

// Scale converts the raw int32 fixed-point values into float.
const Scale = 1e-6

const vec3Len = 12

// parsePayload applies all recognized records in the payload to s.
// It returns false if a record overruns the payload, in which case the
// rest of the payload is discarded and records before it stay applied.
func parsePayload(p []byte, s *Sample) bool {
	for len(p) > 0 {
		if len(p) < 2 {
			return false
		}
		id, n := p[0], int(p[1])
		p = p[2:]
		if n > len(p) {
			return false
		}
		data := p[:n]
		p = p[n:]
		if n < vec3Len {
			continue
		}
		switch id {
		case DataIDRates:
			s.WX, s.WY, s.WZ = vec3(data)
		case DataIDEuler:
			s.Pitch, s.Roll, s.Yaw = vec3(data)
		}
	}
	return true
}

func vec3(data []byte) (x, y, z float64) {
	x = scaled(data[0:4])
	y = scaled(data[4:8])
	z = scaled(data[8:12])
	return
}

func scaled(b []byte) float64 {
	return float64(int32(binary.LittleEndian.Uint32(b))) * Scale
}

func putScaled(b []byte, v float64) {
	binary.LittleEndian.PutUint32(b, uint32(int32(math.Round(v / Scale))))
}
