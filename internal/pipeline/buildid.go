package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"time"
)

// Build ids are ULIDs: 26 Crockford Base32 characters with a millisecond
// timestamp prefix, so they sort lexically in creation order.

var (
	idMu    sync.Mutex
	lastTS  uint64
	lastSeq uint16
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

func NewBuildID() string {
	return newBuildIDAt(time.Now())
}

func newBuildIDAt(t time.Time) string {
	idMu.Lock()
	defer idMu.Unlock()

	ts := uint64(t.UnixMilli())
	if ts == lastTS {
		lastSeq++
	} else {
		lastTS = ts
		lastSeq = 0
	}

	var b [16]byte
	for i := range 6 {
		b[i] = byte(ts >> (40 - 8*i))
	}
	rand.Read(b[6:])
	// Sequence in bytes 6-7 keeps ids unique within the same millisecond.
	binary.BigEndian.PutUint16(b[6:8], lastSeq)

	return encodeCrockford(b)
}

// encodeCrockford encodes 128 bits as 26 characters, most significant first.
// The leading character carries only the top 3 bits.
func encodeCrockford(b [16]byte) string {
	var out [26]byte
	hi := binary.BigEndian.Uint64(b[:8])
	lo := binary.BigEndian.Uint64(b[8:])
	for i := 25; i >= 0; i-- {
		out[i] = crockford[lo&31]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out[:])
}

// BuildTime extracts the timestamp encoded in a build id.
func BuildTime(id string) (time.Time, bool) {
	if len(id) != 26 {
		return time.Time{}, false
	}
	var ts uint64
	for i := range 10 {
		v := indexCrockford(id[i])
		if v < 0 {
			return time.Time{}, false
		}
		ts = ts<<5 | uint64(v)
	}
	// 10 characters carry 50 bits; the timestamp is the low 48.
	return time.UnixMilli(int64(ts & (1<<48 - 1))), true
}

func indexCrockford(c byte) int {
	for i := range len(crockford) {
		if crockford[i] == c {
			return i
		}
	}
	return -1
}
