// swi.go - software-interrupt gateway for emulator debug intrinsics
//
// License: GPLv3 or later

package emulator32bit

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

const (
	swiPrint    = 1000
	swiPrintR   = 1001
	swiPrintM   = 1002
	swiPrintP   = 1003
	swiAssertR  = 1010
	swiAssertM  = 1011
	swiAssertP  = 1012
	swiLog      = 1020
	swiErr      = 1021
)

// swi dispatches on the value of NR to the emulator debug intrinsic it
// names, reading arguments from x0..x4. An unrecognised NR raises a
// fatal BadInstr fault; this mirrors the source gateway's default case,
// extended to also serve 1020/1021 for symmetry with their printing
// siblings even though the source's own dispatcher omits them.
func (cpu *CPU) swi() error {
	nr := cpu.Reg(NR)
	a0, a1, a2, a3, a4 := cpu.Reg(0), cpu.Reg(1), cpu.Reg(2), cpu.Reg(3), cpu.Reg(4)

	switch nr {
	case swiPrint:
		return cpu.emuPrint()
	case swiPrintR:
		return cpu.emuPrintR(a0)
	case swiPrintM:
		return cpu.emuPrintM(a0, a1, a2)
	case swiPrintP:
		return cpu.emuPrintP()
	case swiAssertR:
		return cpu.emuAssertR(a0, a1, a2)
	case swiAssertM:
		return cpu.emuAssertM(a0, a1, a2, a3, a4)
	case swiAssertP:
		return cpu.emuAssertP(a0, a1)
	case swiLog:
		return cpu.emuLog(a0, false)
	case swiErr:
		return cpu.emuLog(a0, true)
	default:
		return errors.Wrapf(newFault(FaultBadInstr, 0), "invalid syscall number %d", nr)
	}
}

func (cpu *CPU) emuPrint() error {
	snap := cpu.Snapshot()
	cpu.logf("registers:\n")
	for i, v := range snap.Regs {
		cpu.logf("  x%-2d = 0x%08x\n", i, v)
	}
	cpu.logf("flags: N=%d Z=%d C=%d V=%d\n",
		b2i(snap.PState&FlagN != 0), b2i(snap.PState&FlagZ != 0),
		b2i(snap.PState&FlagC != 0), b2i(snap.PState&FlagV != 0))
	return nil
}

func (cpu *CPU) emuPrintR(reg uint32) error {
	if reg > 31 {
		return newFault(FaultBadReg, reg)
	}
	cpu.logf("x%d = 0x%08x\n", reg, cpu.Reg(uint8(reg)))
	return nil
}

// readAssembled reads size bytes at addr and assembles them into a
// uint32, honouring little_endian the same way emu_printm's source does:
// when true, addr+0 is least-significant; otherwise addr+size-1 is.
func (cpu *CPU) readAssembled(addr, size uint32, littleEndian bool) (uint32, error) {
	if size == 0 || size > 4 {
		return 0, errors.Errorf("unsupported size %d", size)
	}
	var value uint32
	for i := uint32(0); i < size; i++ {
		b, err := cpu.bus.Read(addr+i, 1)
		if err != nil {
			return 0, err
		}
		var shift uint32
		if littleEndian {
			shift = i * 8
		} else {
			shift = (size - 1 - i) * 8
		}
		value |= b << shift
	}
	return value, nil
}

func (cpu *CPU) emuPrintM(addr, size, littleEndian uint32) error {
	value, err := cpu.readAssembled(addr, size, littleEndian != 0)
	if err != nil {
		return err
	}
	cpu.logf("mem[0x%08x, %d bytes] = 0x%x\n", addr, size, value)
	return nil
}

func (cpu *CPU) emuPrintP() error {
	f := cpu.Flags()
	cpu.logf("N=%d Z=%d C=%d V=%d\n", b2i(f&FlagN != 0), b2i(f&FlagZ != 0), b2i(f&FlagC != 0), b2i(f&FlagV != 0))
	return nil
}

func (cpu *CPU) emuAssertR(reg, min, max uint32) error {
	if reg > 31 {
		return newFault(FaultBadReg, reg)
	}
	v := cpu.Reg(uint8(reg))
	if v < min || v > max {
		cpu.logf("assertion failed: x%d = 0x%x not in [0x%x, 0x%x]\n", reg, v, min, max)
		return newFault(FaultHalt, 0)
	}
	return nil
}

func (cpu *CPU) emuAssertM(addr, size, littleEndian, min, max uint32) error {
	value, err := cpu.readAssembled(addr, size, littleEndian != 0)
	if err != nil {
		return err
	}
	if value < min || value > max {
		cpu.logf("assertion failed: mem[0x%08x] = 0x%x not in [0x%x, 0x%x]\n", addr, value, min, max)
		return newFault(FaultHalt, addr)
	}
	return nil
}

func (cpu *CPU) emuAssertP(flagID, expected uint32) error {
	var bit uint8
	switch flagID {
	case 0:
		bit = FlagN
	case 1:
		bit = FlagZ
	case 2:
		bit = FlagC
	case 3:
		bit = FlagV
	default:
		return errors.Errorf("invalid flag id %d", flagID)
	}
	actual := cpu.flag(bit)
	if actual != (expected != 0) {
		cpu.logf("assertion failed: flag %d = %v, expected %v\n", flagID, actual, expected != 0)
		return newFault(FaultHalt, 0)
	}
	return nil
}

// emuLog reads a NUL-terminated string via the bus and writes it to
// stdout (toStderr=false, emu_log) or stderr followed by a halt
// (toStderr=true, emu_err).
func (cpu *CPU) emuLog(addr uint32, toStderr bool) error {
	var b []byte
	for {
		v, err := cpu.bus.Read(addr, 1)
		if err != nil {
			return err
		}
		if v == 0 {
			break
		}
		b = append(b, byte(v))
		addr++
	}
	if toStderr {
		fmt.Fprintln(os.Stderr, string(b))
		return newFault(FaultHalt, addr)
	}
	fmt.Fprintln(os.Stdout, string(b))
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
