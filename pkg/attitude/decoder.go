package attitude

// Protocol constants.
const (
	Header1 byte = 0x59
	Header2 byte = 0x53

	// MinPayloadLen and MaxPayloadLen bound the declared payload length.
	MinPayloadLen = 1
	MaxPayloadLen = 128

	checksumLen = 2
)

type parseState int

const (
	stateIdle      parseState = iota // waiting for Header1
	stateHeader1                     // Header1 received, waiting for Header2
	stateHeader2                     // Header2 received, waiting for ID1
	stateSkipID1                     // waiting for ID2
	stateSkipID2                     // waiting for LEN
	stateData                        // receiving payload
	stateSkipCK1                     // waiting for CK1
	stateSkipCK2                     // waiting for CK2
	stateDropFrame                   // swallowing a frame with invalid length
)

// Decoder is the frame-sync state machine.
// It's not safe for concurrent use: a single goroutine feeds bytes and
// reads the sample.
type Decoder struct {
	// VerifyChecksum enables Fletcher-8 verification of CK1/CK2 over
	// ID1..payload. The deployed sender is trusted by default.
	VerifyChecksum bool

	state    parseState
	buf      [MaxPayloadLen]byte
	frameLen int
	recvLen  int

	dropRemaining   int
	dropCKRemaining int

	ck1, ck2 byte
	sum1     byte
	sum2     byte

	sample Sample
	stats  Stats
}

// Reset returns the decoder to IDLE and clears the sample and counters.
func (d *Decoder) Reset() {
	verify := d.VerifyChecksum
	*d = Decoder{VerifyChecksum: verify}
}

// Sample returns the latest decoded sample.
func (d *Decoder) Sample() Sample {
	return d.sample
}

// Stats returns the decoder counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Synced indicates the decoder is between frames.
func (d *Decoder) Synced() bool {
	return d.state == stateIdle
}

// Write feeds bytes into the decoder. It implements io.Writer and
// never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	for _, b := range p {
		d.Parse(b)
	}
	return len(p), nil
}

// Parse consumes one byte. It returns true when the byte completed a
// frame whose payload has been applied to the sample.
func (d *Decoder) Parse(b byte) bool {
	switch d.state {
	case stateIdle:
		if b == Header1 {
			d.state = stateHeader1
		}
	case stateHeader1:
		if b == Header2 {
			d.state = stateHeader2
			d.sum1, d.sum2 = 0, 0
		} else {
			d.state = stateIdle
		}
	case stateHeader2:
		d.checksum(b)
		d.state = stateSkipID1
	case stateSkipID1:
		d.checksum(b)
		d.state = stateSkipID2
	case stateSkipID2:
		d.checksum(b)
		d.frameLen, d.recvLen = int(b), 0
		if d.frameLen < MinPayloadLen || d.frameLen > MaxPayloadLen {
			d.stats.Dropped++
			d.dropRemaining, d.dropCKRemaining = d.frameLen, checksumLen
			d.state = stateDropFrame
			return false
		}
		d.state = stateData
	case stateData:
		d.checksum(b)
		d.buf[d.recvLen] = b
		d.recvLen++
		if d.recvLen >= d.frameLen {
			d.state = stateSkipCK1
		}
	case stateSkipCK1:
		d.ck1 = b
		d.state = stateSkipCK2
	case stateSkipCK2:
		d.ck2 = b
		d.state = stateIdle
		return d.frameReady()
	case stateDropFrame:
		if d.dropRemaining > 0 {
			d.dropRemaining--
		} else if d.dropCKRemaining > 0 {
			d.dropCKRemaining--
		}
		if d.dropRemaining == 0 && d.dropCKRemaining == 0 {
			d.state = stateIdle
		}
	default:
		d.state = stateIdle
	}
	return false
}

func (d *Decoder) checksum(b byte) {
	d.sum1 += b
	d.sum2 += d.sum1
}

func (d *Decoder) frameReady() bool {
	if d.VerifyChecksum && (d.ck1 != d.sum1 || d.ck2 != d.sum2) {
		d.stats.ChecksumErrors++
		return false
	}
	d.stats.Frames++
	if !parsePayload(d.buf[:d.frameLen], &d.sample) {
		d.stats.Truncated++
	}
	return true
}
