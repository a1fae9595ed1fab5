package common

// WipeByteArray zeroes the buffer in place so secrets do not linger in
// memory longer than needed. Safe to call with nil.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
