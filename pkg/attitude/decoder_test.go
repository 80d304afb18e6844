package attitude

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func le32(v int32) []byte {
	u := uint32(v)
	return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}

func rawRecord(id byte, vals ...int32) []byte {
	b := []byte{id, byte(len(vals) * 4)}
	for _, v := range vals {
		b = append(b, le32(v)...)
	}
	return b
}

// rawFrame builds a frame by hand with zero checksum bytes.
func rawFrame(payload ...[]byte) []byte {
	var p []byte
	for _, rec := range payload {
		p = append(p, rec...)
	}
	b := []byte{Header1, Header2, 0x01, 0x00, byte(len(p))}
	b = append(b, p...)
	return append(b, 0, 0)
}

func feed(d *Decoder, in []byte) (frames int) {
	for _, b := range in {
		if d.Parse(b) {
			frames++
		}
	}
	return
}

func TestDecodeRates(t *testing.T) {
	var d Decoder
	frames := feed(&d, rawFrame(rawRecord(DataIDRates, 1000000, 2000000, -500000)))
	require.Equal(t, 1, frames)
	s := d.Sample()
	require.InDelta(t, 1.0, s.WX, 1e-12)
	require.InDelta(t, 2.0, s.WY, 1e-12)
	require.InDelta(t, -0.5, s.WZ, 1e-12)
	require.True(t, d.Synced())
	require.Equal(t, Stats{Frames: 1}, d.Stats())
}

func TestDecodeEulerOrder(t *testing.T) {
	var d Decoder
	feed(&d, rawFrame(rawRecord(DataIDEuler, 1500000, -2250000, 90000000)))
	s := d.Sample()
	require.InDelta(t, 1.5, s.Pitch, 1e-12)
	require.InDelta(t, -2.25, s.Roll, 1e-12)
	require.InDelta(t, 90.0, s.Yaw, 1e-9)
}

func TestDecoderSequences(t *testing.T) {
	good := rawFrame(
		rawRecord(DataIDRates, 1000000, 2000000, 3000000),
		rawRecord(DataIDEuler, 4000000, 5000000, 6000000),
	)
	expected := Sample{Pitch: 4, Roll: 5, Yaw: 6, WX: 1, WY: 2, WZ: 3}

	filler := func(n int, b byte) []byte { return bytes.Repeat([]byte{b}, n) }
	concat := func(parts ...[]byte) []byte { return bytes.Join(parts, nil) }

	testCases := []struct {
		name   string
		in     []byte
		frames int
		stats  Stats
		sample Sample
	}{
		{
			name:   "well formed",
			in:     good,
			frames: 1,
			stats:  Stats{Frames: 1},
			sample: expected,
		},
		{
			name:   "garbage before header",
			in:     concat([]byte{0x00, 0x59, 0x00, 0x53, 0xff}, good),
			frames: 1,
			stats:  Stats{Frames: 1},
			sample: expected,
		},
		{
			name:   "invalid length 255 then frame",
			in:     concat([]byte{Header1, Header2, 0, 0, 255}, filler(255+2, 0xaa), good),
			frames: 1,
			stats:  Stats{Frames: 1, Dropped: 1},
			sample: expected,
		},
		{
			name:   "invalid length with trailing noise",
			in:     concat([]byte{Header1, Header2, 0, 0, 200}, filler(300, 0x00), good),
			frames: 1,
			stats:  Stats{Frames: 1, Dropped: 1},
			sample: expected,
		},
		{
			name:   "zero length swallows checksum only",
			in:     concat([]byte{Header1, Header2, 0, 0, 0, 0x11, 0x22}, good),
			frames: 1,
			stats:  Stats{Frames: 1, Dropped: 1},
			sample: expected,
		},
		{
			name: "drop trusts declared length",
			// the declared length covers the following frame, which is lost.
			in:     concat([]byte{Header1, Header2, 0, 0, 129}, filler(100, 0), good),
			frames: 0,
			stats:  Stats{Dropped: 1},
		},
		{
			name: "truncated record keeps earlier records",
			in: rawFrame(
				rawRecord(DataIDRates, 1000000, 2000000, 3000000),
				[]byte{DataIDEuler, 12, 1, 2, 3},
			),
			frames: 1,
			stats:  Stats{Frames: 1, Truncated: 1},
			sample: Sample{WX: 1, WY: 2, WZ: 3},
		},
		{
			name:   "single trailing byte",
			in:     rawFrame(rawRecord(DataIDRates, 1000000, 0, 0), []byte{0x40}),
			frames: 1,
			stats:  Stats{Frames: 1, Truncated: 1},
			sample: Sample{WX: 1},
		},
		{
			name: "unknown and short records are skipped",
			in: rawFrame(
				[]byte{0x10, 3, 9, 9, 9},
				rawRecord(DataIDEuler, 1000000, 2000000),
				rawRecord(DataIDRates, 7000000, 8000000, 9000000),
			),
			frames: 1,
			stats:  Stats{Frames: 1},
			sample: Sample{WX: 7, WY: 8, WZ: 9},
		},
		{
			name:   "longer record uses first 12 bytes",
			in:     rawFrame(rawRecord(DataIDEuler, 1000000, 2000000, 3000000, 4000000)),
			frames: 1,
			stats:  Stats{Frames: 1},
			sample: Sample{Pitch: 1, Roll: 2, Yaw: 3},
		},
		{
			name:   "latest frame wins",
			in:     concat(rawFrame(rawRecord(DataIDEuler, 1, 1, 1)), good),
			frames: 2,
			stats:  Stats{Frames: 2},
			sample: expected,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var d Decoder
			require.Equal(t, tc.frames, feed(&d, tc.in))
			require.Equal(t, tc.stats, d.Stats())
			s := d.Sample()
			require.InDelta(t, tc.sample.Roll, s.Roll, 1e-9)
			require.InDelta(t, tc.sample.Pitch, s.Pitch, 1e-9)
			require.InDelta(t, tc.sample.Yaw, s.Yaw, 1e-9)
			require.InDelta(t, tc.sample.WX, s.WX, 1e-9)
			require.InDelta(t, tc.sample.WY, s.WY, 1e-9)
			require.InDelta(t, tc.sample.WZ, s.WZ, 1e-9)
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	in := Sample{Roll: -12.5, Pitch: 3.25, Yaw: 179.999999, WX: -0.000001, WY: 250, WZ: -2000}
	frame := AppendFrame(nil, 0x1234, SampleRecords(in)...)
	require.Equal(t, []byte{Header1, Header2, 0x34, 0x12, 28}, frame[:5])
	require.Len(t, frame, 5+28+2)

	d := Decoder{VerifyChecksum: true}
	n, err := d.Write(frame)
	require.NoError(t, err)
	require.Equal(t, len(frame), n)
	require.Equal(t, Stats{Frames: 1}, d.Stats())
	out := d.Sample()
	require.InDelta(t, in.Roll, out.Roll, 1e-6)
	require.InDelta(t, in.Pitch, out.Pitch, 1e-6)
	require.InDelta(t, in.Yaw, out.Yaw, 1e-6)
	require.InDelta(t, in.WX, out.WX, 1e-6)
	require.InDelta(t, in.WY, out.WY, 1e-6)
	require.InDelta(t, in.WZ, out.WZ, 1e-6)
}

func TestChecksumVerification(t *testing.T) {
	frame := AppendFrame(nil, 1, RatesRecord(1, 2, 3))
	frame[len(frame)-1] ^= 0xff

	var trusting Decoder
	require.Equal(t, 1, feed(&trusting, frame))
	require.InDelta(t, 1.0, trusting.Sample().WX, 1e-9)

	verifying := Decoder{VerifyChecksum: true}
	require.Equal(t, 0, feed(&verifying, frame))
	require.Equal(t, Stats{ChecksumErrors: 1}, verifying.Stats())
	require.Zero(t, verifying.Sample().WX)
	require.True(t, verifying.Synced())

	// resynchronizes on the next frame.
	require.Equal(t, 1, feed(&verifying, AppendFrame(nil, 1, RatesRecord(4, 5, 6))))
	require.InDelta(t, 4.0, verifying.Sample().WX, 1e-9)
}

func TestDecoderReset(t *testing.T) {
	d := Decoder{VerifyChecksum: true}
	feed(&d, AppendFrame(nil, 1, RatesRecord(1, 2, 3)))
	feed(&d, []byte{Header1, Header2, 0})
	require.False(t, d.Synced())
	d.Reset()
	require.True(t, d.Synced())
	require.True(t, d.VerifyChecksum)
	require.Equal(t, Sample{}, d.Sample())
	require.Equal(t, Stats{}, d.Stats())
}

func TestSourceDrain(t *testing.T) {
	var stream []byte
	stream = AppendFrame(stream, 1, SampleRecords(Sample{Roll: 1, WX: 2})...)
	stream = append(stream, 0x00, 0x13, 0x37)
	stream = AppendFrame(stream, 2, SampleRecords(Sample{Roll: 3, WX: 4})...)

	src := NewSource(bytes.NewReader(stream))
	require.Equal(t, "attitude", src.Name())
	require.Zero(t, src.Drain())

	// bytes.Reader returns io.EOF once drained, which stops the pump.
	err := src.Run(context.Background())
	require.Error(t, err)

	require.Equal(t, 2, src.Drain())
	require.InDelta(t, 3.0, src.Sample().Roll, 1e-9)
	require.InDelta(t, 4.0, src.Sample().WX, 1e-9)
	require.Equal(t, Stats{Frames: 2}, src.Stats())
	require.Zero(t, src.Drain())
}
