// memory.go - addressable memory regions for the 32-bit core
//
// License: GPLv3 or later

package emulator32bit

import "github.com/pkg/errors"

// FaultCode identifies the kind of memory fault a Memory or SystemBus
// operation failed with.
type FaultCode int

const (
	FaultOutOfBounds FaultCode = iota
	FaultAccessDenied
	FaultNoRegion
	FaultBadInstr
	FaultBadReg
	FaultHalt
)

func (c FaultCode) String() string {
	switch c {
	case FaultOutOfBounds:
		return "OUT_OF_BOUNDS_ADDRESS"
	case FaultAccessDenied:
		return "ACCESS_DENIED"
	case FaultNoRegion:
		return "NO_REGION_AT_ADDRESS"
	case FaultBadInstr:
		return "BAD_INSTR"
	case FaultBadReg:
		return "BAD_REG"
	case FaultHalt:
		return "HALT"
	default:
		return "UNKNOWN_FAULT"
	}
}

// MemoryFault is returned by Memory and SystemBus operations that fail.
// It satisfies the error interface and carries the structured code
// callers (in particular the SWI assert/print family) need to report.
type MemoryFault struct {
	Code    FaultCode
	Address uint32
}

func (f *MemoryFault) Error() string {
	return errors.Errorf("%s at address 0x%08x", f.Code, f.Address).Error()
}

func newFault(code FaultCode, addr uint32) error {
	return &MemoryFault{Code: code, Address: addr}
}

// Memory is a flat, byte-addressed region spanning [Lo, Hi). A region is
// either writable (RAM) or not (ROM); there is no separate ROM type, since
// the only behavioural difference between the two is whether Write
// succeeds.
type Memory struct {
	lo, hi   uint32
	data     []byte
	writable bool
	name     string
}

// NewRAM creates a writable Memory region of size bytes starting at lo.
func NewRAM(name string, lo, size uint32) *Memory {
	return &Memory{lo: lo, hi: lo + size, data: make([]byte, size), writable: true, name: name}
}

// NewROM creates a read-only Memory region pre-populated with image. Writes
// to a ROM region always fault with FaultAccessDenied and never mutate data.
func NewROM(name string, lo uint32, image []byte) *Memory {
	data := make([]byte, len(image))
	copy(data, image)
	return &Memory{lo: lo, hi: lo + uint32(len(image)), data: data, writable: false, name: name}
}

// Name returns the region's label, used in bus introspection and faults.
func (m *Memory) Name() string { return m.name }

// Bounds returns the half-open address range [lo, hi) this region covers.
func (m *Memory) Bounds() (lo, hi uint32) { return m.lo, m.hi }

// Writable reports whether Write can succeed against this region.
func (m *Memory) Writable() bool { return m.writable }

func (m *Memory) inBounds(addr uint32, n int) bool {
	if n <= 0 {
		return false
	}
	end := addr + uint32(n) - 1
	return addr >= m.lo && end >= addr && end < m.hi
}

// Read assembles n bytes (1, 2, or 4) starting at addr into a single value,
// most-significant byte first: the byte at addr becomes the high-order
// byte of the result. Reading out of bounds returns a FaultOutOfBounds
// MemoryFault and a zero value.
func (m *Memory) Read(addr uint32, n int) (uint32, error) {
	if !m.inBounds(addr, n) {
		return 0, newFault(FaultOutOfBounds, addr)
	}
	var value uint32
	off := addr - m.lo
	for i := 0; i < n; i++ {
		value <<= 8
		value |= uint32(m.data[off+uint32(i)])
	}
	return value, nil
}

// Write stores the low n bytes of value starting at addr, most-significant
// byte first: the low byte of value is stored at addr+n-1, and each byte
// moving toward addr carries the next-more-significant byte. Writing to a
// read-only region returns a FaultAccessDenied MemoryFault without
// mutating data; writing out of bounds returns FaultOutOfBounds.
func (m *Memory) Write(addr, value uint32, n int) error {
	if !m.inBounds(addr, n) {
		return newFault(FaultOutOfBounds, addr)
	}
	if !m.writable {
		return newFault(FaultAccessDenied, addr)
	}
	off := addr - m.lo
	for i := n - 1; i >= 0; i-- {
		m.data[off+uint32(i)] = byte(value)
		value >>= 8
	}
	return nil
}

// Snapshot returns a copy of the region's backing bytes, used by tests
// and for introspection; callers never get a live reference into region
// storage. The SWI memory-print/assert family reads through the bus
// instead.
func (m *Memory) Snapshot() []byte {
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}
