package srcmap

import (
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"
)

const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift
	vlqBaseMask        = vlqBase - 1
	vlqContinuationBit = vlqBase
	vlqMaxShift        = 32
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Decode = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		t[base64Chars[i]] = int8(i)
	}
	return t
}()

var (
	errVLQUnterminated = errors.New("unterminated vlq value")
	errVLQOverflow     = errors.New("vlq value overflows int32")
)

// appendVLQ writes v as one Base64 VLQ value.
func appendVLQ(sb *strings.Builder, v int) {
	// младший бит хранит знак
	var u uint64
	if v < 0 {
		u = uint64(-v)<<1 | 1
	} else {
		u = uint64(v) << 1
	}
	for {
		digit := u & vlqBaseMask
		u >>= vlqBaseShift
		if u > 0 {
			digit |= vlqContinuationBit
		}
		sb.WriteByte(base64Chars[digit])
		if u == 0 {
			return
		}
	}
}

// decodeVLQ reads one value from s starting at pos and returns it together
// with the position right after it.
func decodeVLQ(s string, pos int) (value, next int, err error) {
	var (
		acc   uint64
		shift uint
	)
	for {
		if pos >= len(s) {
			return 0, pos, errVLQUnterminated
		}
		c := s[pos]
		digit := base64Decode[c]
		if digit < 0 {
			return 0, pos, fmt.Errorf("invalid base64 character %q at %d", c, pos)
		}
		pos++
		acc |= uint64(digit&vlqBaseMask) << shift
		if digit&vlqContinuationBit == 0 {
			break
		}
		shift += vlqBaseShift
		if shift > vlqMaxShift {
			return 0, pos, errVLQOverflow
		}
	}
	neg := acc&1 == 1
	acc >>= 1
	v, convErr := safecast.Conv[int32](acc)
	if convErr != nil {
		return 0, pos, errVLQOverflow
	}
	if neg {
		v = -v
	}
	return int(v), pos, nil
}
