package attitude

// Record is one (data id, data) record in a frame payload.
type Record struct {
	ID   byte
	Data []byte
}

// RatesRecord encodes angular rates.
func RatesRecord(wx, wy, wz float64) Record {
	return Record{ID: DataIDRates, Data: vec3Bytes(wx, wy, wz)}
}

// EulerRecord encodes Euler angles, in wire order pitch, roll, yaw.
func EulerRecord(pitch, roll, yaw float64) Record {
	return Record{ID: DataIDEuler, Data: vec3Bytes(pitch, roll, yaw)}
}

// SampleRecords encodes a Sample as rates and Euler records.
func SampleRecords(s Sample) []Record {
	return []Record{
		RatesRecord(s.WX, s.WY, s.WZ),
		EulerRecord(s.Pitch, s.Roll, s.Yaw),
	}
}

func vec3Bytes(x, y, z float64) []byte {
	b := make([]byte, vec3Len)
	putScaled(b[0:4], x)
	putScaled(b[4:8], y)
	putScaled(b[8:12], z)
	return b
}

// AppendFrame encodes a frame with the given id and records and appends
// it to dst. Record data longer than 255 bytes is truncated. A payload
// exceeding MaxPayloadLen produces a frame the decoder will drop.
func AppendFrame(dst []byte, id uint16, records ...Record) []byte {
	var payload []byte
	for _, r := range records {
		data := r.Data
		if len(data) > 0xff {
			data = data[:0xff]
		}
		payload = append(payload, r.ID, byte(len(data)))
		payload = append(payload, data...)
	}
	start := len(dst)
	dst = append(dst, Header1, Header2, byte(id), byte(id>>8), byte(len(payload)))
	dst = append(dst, payload...)
	var sum1, sum2 byte
	for _, b := range dst[start+2:] {
		sum1 += b
		sum2 += sum1
	}
	return append(dst, sum1, sum2)
}
