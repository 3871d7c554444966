// Package backoff computes exponential retry delays with crypto-random jitter.
package backoff

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Exponential returns base*2^attempt plus up to 20% jitter, capped at max when max > 0.
// attempt is zero based.
func Exponential(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 20 {
		attempt = 20
	}
	waitTime := base
	for i := 0; i < attempt; i++ {
		if max > 0 && waitTime >= max {
			break
		}
		waitTime *= 2
	}
	if max > 0 && waitTime > max {
		waitTime = max
	}
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	// mask the high bit so the conversion stays positive
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- safe after masking
	return int64(uval) % n
}
