package diag

import (
	"fmt"
)

// Code is a compact numeric identifier for one class of resolution failure.
type Code uint16

const (
	// UnknownCode is a fallback for errors with no assigned class.
	UnknownCode Code = 0

	// Decoding (absorbed locally, logged, never fatal)
	DecodeCorrupt Code = 1001
	CorruptExpr   Code = 1002

	// Name resolution
	NotFound    Code = 2001
	BadReceiver Code = 2002

	// Value resolution
	OptimizedOut Code = 3001
	Unavailable  Code = 3002
	ReadFailed   Code = 3003
	Cancelled    Code = 3004

	// Storage
	BadCache Code = 4001
)

func (c Code) String() string {
	switch c {
	case DecodeCorrupt:
		return "decode-corrupt"
	case CorruptExpr:
		return "corrupt-expression"
	case NotFound:
		return "not-found"
	case BadReceiver:
		return "bad-receiver"
	case OptimizedOut:
		return "optimized-out"
	case Unavailable:
		return "unavailable"
	case ReadFailed:
		return "read-failed"
	case Cancelled:
		return "cancelled"
	case BadCache:
		return "bad-cache"
	default:
		return fmt.Sprintf("E%04d", uint16(c))
	}
}
