// Package eval computes variable values: it runs the location programs
// attached to symbols against a debuggee's registers and memory, then
// reads and shapes the bytes the program points at.
package eval

import "context"

// DataProvider supplies debuggee state. Reads may need a round trip to
// the target, so they block and honor context cancellation; callers
// treat every call as a potential suspension point.
type DataProvider interface {
	// IP is the absolute address execution is stopped at.
	IP() uint64

	ReadRegister(ctx context.Context, reg uint32) (uint64, error)

	ReadMemory(ctx context.Context, addr uint64, size uint32) ([]byte, error)

	// FrameBase is the frame base address the current function's frame
	// base program resolves to.
	FrameBase(ctx context.Context) (uint64, error)

	// CFA is the canonical frame address of the current frame.
	CFA(ctx context.Context) (uint64, error)
}
