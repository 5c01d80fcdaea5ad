// step.go - fetch-execute loop, branches, and load/store
//
// License: GPLv3 or later

package emulator32bit

import "github.com/pkg/errors"

// Step performs one fetch-decode-execute cycle: it reads the word at PC,
// advances PC by four, decodes and (if the condition holds) executes the
// instruction. All register and flag updates from the instruction become
// visible together, after any memory writes it performs. Step returns a
// non-nil error for any exception other than a normal condition-failed
// no-op; HALT is returned as an error like any other terminating fault
// so Run can distinguish it from earlier faults if it chooses to.
func (cpu *CPU) Step() error {
	word, err := cpu.bus.Read(cpu.Reg(PC), 4)
	if err != nil {
		return errors.Wrap(newFault(FaultBadInstr, cpu.Reg(PC)), "fetch")
	}
	cpu.SetReg(PC, cpu.Reg(PC)+4)

	instr, err := Decode(word)
	if err != nil {
		return err
	}

	if !cpu.checkCondition(instr.Cond) {
		return nil
	}

	return cpu.execute(instr)
}

// Run performs up to n steps, stopping as soon as the core is halted or
// a step returns a non-nil error. It returns the number of steps it
// actually completed and the error (if any) that stopped it early.
func (cpu *CPU) Run(n int) (int, error) {
	cpu.Start()
	completed := 0
	for completed < n && cpu.running {
		err := cpu.Step()
		if err == nil {
			completed++
			continue
		}
		completed++
		cpu.Halt()
		return completed, err
	}
	return completed, nil
}

func (cpu *CPU) execute(instr Instruction) error {
	switch ops := instr.Operands.(type) {
	case DataOp:
		return cpu.executeDataOp(instr.Op, ops)
	case MulLong:
		return cpu.executeMulLong(instr.Op, ops)
	case BranchOp:
		return cpu.executeBranch(ops, instr.Op == OpBL)
	case LoadStoreOp:
		return cpu.executeLoadStore(instr.Op, ops)
	case SWIOp:
		switch instr.Op {
		case OpSWI:
			return cpu.swi()
		case OpHALT:
			return newFault(FaultHalt, cpu.Reg(PC))
		case OpNOP:
			return nil
		}
	}
	return newFault(FaultBadInstr, cpu.Reg(PC))
}

func (cpu *CPU) executeBranch(b BranchOp, link bool) error {
	if b.ByRegister {
		cpu.SetReg(PC, cpu.Reg(b.Rm))
		return nil
	}
	if link {
		cpu.SetReg(LR, cpu.Reg(PC))
	}
	cpu.SetReg(PC, uint32(int32(cpu.Reg(PC))+b.Offset))
	return nil
}

func (cpu *CPU) effectiveAddress(rn uint32, op2 Operand2) uint32 {
	if op2.Imm {
		return rn + op2.ImmValue
	}
	offset, _ := shift(op2.Kind, cpu.Reg(op2.Rm), op2.Amount, cpu.flag(FlagC))
	return rn + offset
}

func (cpu *CPU) executeLoadStore(op Op, l LoadStoreOp) error {
	base := cpu.Reg(l.Rn)
	addr := base
	if l.PreIndex || l.WriteBack {
		addr = cpu.effectiveAddress(base, l.Op2)
	}

	if int(l.Width) > 1 && addr%uint32(l.Width) != 0 {
		return errors.Wrapf(newFault(FaultBadInstr, addr), "misaligned %d-byte access", l.Width)
	}

	switch op {
	case OpLDR:
		value, err := cpu.bus.Read(addr, int(l.Width))
		if err != nil {
			return err
		}
		if l.SignExtend {
			switch l.Width {
			case WidthByte:
				value = uint32(int32(int8(value)))
			case WidthHalf:
				value = uint32(int32(int16(value)))
			}
		}
		cpu.SetReg(l.Rd, value)
	case OpSTR:
		if err := cpu.bus.Write(addr, cpu.Reg(l.Rd), int(l.Width)); err != nil {
			return err
		}
	}

	if l.PostIndex {
		addr = cpu.effectiveAddress(base, l.Op2)
	}
	if l.WriteBack || l.PostIndex {
		cpu.SetReg(l.Rn, addr)
	}
	return nil
}
