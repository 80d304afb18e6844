package attitude

// Sample is the latest decoded attitude.
// Angles and rates are in the units the IMU is configured with
// (degrees and degrees/second by default).
type Sample struct {
	Roll  float64
	Pitch float64
	Yaw   float64

	WX float64
	WY float64
	WZ float64
}

// Stats counts decoder events.
type Stats struct {
	// Frames is the number of frames accepted and parsed.
	Frames uint64
	// Dropped is the number of frames dropped for an invalid length.
	Dropped uint64
	// Truncated is the number of payloads in which a record overruns
	// the payload.
	Truncated uint64
	// ChecksumErrors is the number of frames rejected by checksum
	// verification. Always 0 unless verification is enabled.
	ChecksumErrors uint64
}
