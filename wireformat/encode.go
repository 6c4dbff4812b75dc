package wireformat

import (
	"encoding/binary"
	"math"
)

// AppendNil appends the nil marker to buf.
func AppendNil(buf []byte) []byte { return append(buf, byteNil) }

// AppendBool appends a true/false marker to buf.
func AppendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, byteTrue)
	}
	return append(buf, byteFalse)
}

// AppendInt appends the smallest integer encoding that holds v, per the
// output contract: numbers are emitted using the smallest representation
// that holds the value.
func AppendInt(buf []byte, v int64) []byte {
	switch {
	case v >= 0 && v <= 0x7f:
		return append(buf, byte(v))
	case v < 0 && v >= -32:
		return append(buf, byte(v))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return append(buf, byteInt8, byte(int8(v)))
	case v >= 0 && v <= math.MaxUint8:
		return append(buf, byteUint8, byte(v))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(int16(v)))
		return append(append(buf, byteInt16), b...)
	case v >= 0 && v <= math.MaxUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		return append(append(buf, byteUint16), b...)
	case v >= math.MinInt32 && v <= math.MaxInt32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(int32(v)))
		return append(append(buf, byteInt32), b...)
	case v >= 0 && v <= math.MaxUint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v))
		return append(append(buf, byteUint32), b...)
	default:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v))
		return append(append(buf, byteInt64), b...)
	}
}

// AppendFloat64 appends a float64 marker and its big-endian payload.
func AppendFloat64(buf []byte, f float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(f))
	return append(append(buf, byteFloat64), b...)
}

// AppendStrHeader appends the marker and length header for a UTF-8 string of
// byte length n; the caller copies the payload bytes itself.
func AppendStrHeader(buf []byte, n int) []byte {
	switch {
	case n <= 0x1f:
		return append(buf, byte(0xa0|n))
	case n <= math.MaxUint8:
		return append(buf, byteStr8, byte(n))
	case n <= math.MaxUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		return append(append(buf, byteStr16), b...)
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		return append(append(buf, byteStr32), b...)
	}
}

// AppendStr appends a full UTF-8 string value (header plus payload).
func AppendStr(buf []byte, s string) []byte {
	buf = AppendStrHeader(buf, len(s))
	return append(buf, s...)
}

// AppendArrayHeader appends the marker and length header for an array of n elements.
func AppendArrayHeader(buf []byte, n int) []byte {
	switch {
	case n <= 0x0f:
		return append(buf, byte(0x90|n))
	case n <= math.MaxUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		return append(append(buf, byteArray16), b...)
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		return append(append(buf, byteArray32), b...)
	}
}

// AppendMapHeader appends the marker and length header for a map of n key/value pairs.
func AppendMapHeader(buf []byte, n int) []byte {
	switch {
	case n <= 0x0f:
		return append(buf, byte(0x80|n))
	case n <= math.MaxUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(n))
		return append(append(buf, byteMap16), b...)
	default:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(n))
		return append(append(buf, byteMap32), b...)
	}
}
