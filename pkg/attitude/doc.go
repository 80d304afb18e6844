// Package attitude decodes the binary attitude stream of the IMU.
package attitude

// The IMU sends frames of the following shape:
//
//   0x59 0x53 | ID1 ID2 | LEN | PAYLOAD (LEN bytes) | CK1 CK2
//
// The payload is a sequence of (data id, data len, data) records.
// Angular rates (0x20) and Euler angles (0x40) are three little-endian
// int32 values scaled by 1e-6.
//
// The decoder is a byte-at-a-time state machine which never reports an
// error: a malformed frame is dropped and the decoder resynchronizes on
// the next frame boundary. Checksum bytes are consumed but not verified
// unless Decoder.VerifyChecksum is set.
//
// Producer: IMU
// Consumer: balance controller
