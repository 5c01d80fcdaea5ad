package emulator32bit

import (
	"fmt"
	"strings"
	"testing"
)

func TestEmuAssertRHalts(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(NR, 1010)
	cpu.SetReg(0, 5)  // reg id
	cpu.SetReg(1, 10) // min
	cpu.SetReg(2, 20) // max

	err := cpu.swi()
	fault, ok := err.(*MemoryFault)
	if !ok || fault.Code != FaultHalt {
		t.Fatalf("got %v, want HALT fault", err)
	}
}

func TestEmuAssertRPassesInRange(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(5, 15)
	cpu.SetReg(NR, 1010)
	cpu.SetReg(0, 5)
	cpu.SetReg(1, 10)
	cpu.SetReg(2, 20)

	if err := cpu.swi(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmuPrintMRespectsLittleEndianFlag(t *testing.T) {
	cpu := newTestCPU()
	if err := cpu.bus.Write(0, 0x01020304, 4); err != nil {
		t.Fatalf("setup: %v", err)
	}

	var captured string
	cpu.Logf = func(format string, args ...any) {
		captured += fmt.Sprintf(format, args...)
	}

	cpu.SetReg(NR, 1002)
	cpu.SetReg(0, 0) // addr
	cpu.SetReg(1, 4) // size
	cpu.SetReg(2, 1) // little_endian
	if err := cpu.swi(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(captured, "0x4030201") {
		t.Fatalf("little-endian assembly not reflected in output: %q", captured)
	}
}

func TestUnknownSyscallIsFatal(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(NR, 9999)
	if err := cpu.swi(); err == nil {
		t.Fatalf("expected fatal diagnostic for unknown syscall")
	}
}
