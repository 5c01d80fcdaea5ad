package emulator32bit

import "testing"

func asUint32(v int32) uint32 { return uint32(v) }

func newTestCPU() *CPU {
	bus := NewSystemBus()
	_ = bus.MapRegion(NewRAM("ram", 0, 0x1000))
	return NewCPU(bus)
}

func runOne(t *testing.T, cpu *CPU, instr Instruction) {
	t.Helper()
	word, err := Encode(instr)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := cpu.bus.Write(0, word, 4); err != nil {
		t.Fatalf("write instruction: %v", err)
	}
	cpu.SetReg(PC, 0)
	if _, err := cpu.Run(1); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRSCPositiveToNegativeOverflow(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(1, asUint32(-2))
	cpu.SetReg(2, 0x7FFFFFFF)
	cpu.SetFlags(FlagC)

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpRSC, Operands: DataOp{
		S: true, Rd: 0, Rn: 1,
		Op2: Operand2{Rm: 2, Kind: ShiftLSL, Amount: 0},
	}})

	if cpu.Reg(0) != 0x80000000 {
		t.Fatalf("x0 = 0x%x, want 0x80000000", cpu.Reg(0))
	}
	if cpu.Reg(1) != asUint32(-2) || cpu.Reg(2) != 0x7FFFFFFF {
		t.Fatalf("operand registers were mutated")
	}
	f := cpu.Flags()
	if f&FlagN == 0 || f&FlagZ != 0 || f&FlagC == 0 || f&FlagV == 0 {
		t.Fatalf("flags = %04b, want N=1 Z=0 C=1 V=1", f)
	}
}

func TestRSCImmediateNoFlagUpdate(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(1, 9)
	cpu.SetFlags(FlagC)

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpRSC, Operands: DataOp{
		S: false, Rd: 0, Rn: 1,
		Op2: Operand2{Imm: true, ImmValue: 11},
	}})

	if cpu.Reg(0) != 1 {
		t.Fatalf("x0 = %d, want 1", cpu.Reg(0))
	}
	if cpu.Flags() != FlagC {
		t.Fatalf("flags changed despite S=0: %04b", cpu.Flags())
	}
}

func TestSMULLSign(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(2, asUint32(-2))
	cpu.SetReg(3, 4)

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpSMULL, Operands: MulLong{
		S: true, RdLo: 0, RdHi: 1, Rm: 2, Rs: 3,
	}})

	if int32(cpu.Reg(0)) != -8 {
		t.Fatalf("x0 = %d, want -8", int32(cpu.Reg(0)))
	}
	if int32(cpu.Reg(1)) != -1 {
		t.Fatalf("x1 = %d, want -1", int32(cpu.Reg(1)))
	}
	f := cpu.Flags()
	if f&FlagN == 0 || f&FlagZ != 0 {
		t.Fatalf("flags = %04b, want N=1 Z=0", f)
	}
}

func TestUMULLHighWord(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(2, 0xFFFFFFFF)
	cpu.SetReg(3, 0xFFFFFFFF)

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpUMULL, Operands: MulLong{
		S: true, RdLo: 0, RdHi: 1, Rm: 2, Rs: 3,
	}})

	if cpu.Reg(0) != 1 {
		t.Fatalf("x0 = 0x%x, want 1", cpu.Reg(0))
	}
	if cpu.Reg(1) != 0xFFFFFFFE {
		t.Fatalf("x1 = 0x%x, want 0xFFFFFFFE", cpu.Reg(1))
	}
	f := cpu.Flags()
	if f&FlagN == 0 || f&FlagZ != 0 {
		t.Fatalf("flags = %04b, want N=1 Z=0", f)
	}
}

func TestConditionALPreservesFlagsWhenSClear(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetFlags(FlagN | FlagC)
	cpu.SetReg(1, 5)
	cpu.SetReg(2, 3)

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpADD, Operands: DataOp{
		S: false, Rd: 0, Rn: 1,
		Op2: Operand2{Rm: 2, Kind: ShiftLSL, Amount: 0},
	}})

	if cpu.Flags() != FlagN|FlagC {
		t.Fatalf("flags = %04b, want unchanged N|C", cpu.Flags())
	}
}

func TestConditionFailedInstructionIsNoOpExceptPC(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetFlags(0) // Z clear
	cpu.SetReg(0, 0xAAAA)

	runOne(t, cpu, Instruction{Cond: CondEQ, Op: OpADD, Operands: DataOp{
		S: false, Rd: 0, Rn: 0,
		Op2: Operand2{Imm: true, ImmValue: 1},
	}})

	if cpu.Reg(0) != 0xAAAA {
		t.Fatalf("register mutated despite failed condition")
	}
	if cpu.Reg(PC) != 4 {
		t.Fatalf("PC = %d, want 4", cpu.Reg(PC))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Instruction{
		{Cond: CondAL, Op: OpADD, Operands: DataOp{S: true, Rd: 3, Rn: 4, Op2: Operand2{Rm: 5, Kind: ShiftLSR, Amount: 7}}},
		{Cond: CondEQ, Op: OpRSC, Operands: DataOp{Rd: 1, Rn: 2, Op2: Operand2{Imm: true, ImmValue: 200}}},
		{Cond: CondGE, Op: OpSMULL, Operands: MulLong{S: true, RdLo: 0, RdHi: 1, Rm: 2, Rs: 3}},
		{Cond: CondAL, Op: OpB, Operands: BranchOp{Offset: -64}},
		{Cond: CondAL, Op: OpBX, Operands: BranchOp{ByRegister: true, Rm: 9}},
	}
	for _, want := range cases {
		word, err := Encode(want)
		if err != nil {
			t.Fatalf("encode %+v: %v", want, err)
		}
		got, err := Decode(word)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != want {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
		}
	}
}
