package emulator32bit

import "testing"

func TestLoadPreIndexedWriteBackUpdatesBase(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(1, 0x100)
	if err := cpu.bus.Write(0x104, 0xDEADBEEF, int(WidthWord)); err != nil {
		t.Fatalf("seed memory: %v", err)
	}

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{
		Width: WidthWord, Rd: 0, Rn: 1,
		Op2:       Operand2{Imm: true, ImmValue: 4},
		WriteBack: true,
	}})

	if cpu.Reg(0) != 0xDEADBEEF {
		t.Fatalf("x0 = 0x%x, want 0xDEADBEEF", cpu.Reg(0))
	}
	if cpu.Reg(1) != 0x104 {
		t.Fatalf("x1 (base) = 0x%x, want 0x104 written back", cpu.Reg(1))
	}
}

func TestStorePostIndexedUpdatesBaseAfterAccess(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(0, 0x12345678)
	cpu.SetReg(1, 0x200)

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpSTR, Operands: LoadStoreOp{
		Width: WidthWord, Rd: 0, Rn: 1,
		Op2: Operand2{Imm: true, ImmValue: 8},
	}})

	value, err := cpu.bus.Read(0x200, int(WidthWord))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if value != 0x12345678 {
		t.Fatalf("stored value = 0x%x, want 0x12345678", value)
	}
	if cpu.Reg(1) != 0x208 {
		t.Fatalf("x1 (base) = 0x%x, want 0x208 written back after access", cpu.Reg(1))
	}
}

func TestLoadMisalignedHalfwordFaults(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(1, 0x11)

	word, err := Encode(Instruction{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{
		Width: WidthHalf, Rd: 0, Rn: 1,
	}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := cpu.bus.Write(0, word, 4); err != nil {
		t.Fatalf("write instruction: %v", err)
	}
	cpu.SetReg(PC, 0)
	if _, err := cpu.Run(1); err == nil {
		t.Fatalf("expected misaligned access fault, got none")
	}
}

func TestLoadMisalignedWordFaults(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(1, 0x13)

	word, err := Encode(Instruction{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{
		Width: WidthWord, Rd: 0, Rn: 1,
	}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := cpu.bus.Write(0, word, 4); err != nil {
		t.Fatalf("write instruction: %v", err)
	}
	cpu.SetReg(PC, 0)
	if _, err := cpu.Run(1); err == nil {
		t.Fatalf("expected misaligned access fault, got none")
	}
}

func TestLoadSignedByteSignExtends(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(1, 0x20)
	if err := cpu.bus.Write(0x20, 0xFF, int(WidthByte)); err != nil {
		t.Fatalf("seed memory: %v", err)
	}

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{
		Width: WidthByte, SignExtend: true, Rd: 0, Rn: 1,
	}})

	if cpu.Reg(0) != 0xFFFFFFFF {
		t.Fatalf("x0 = 0x%x, want 0xFFFFFFFF (sign-extended -1)", cpu.Reg(0))
	}
}

func TestLoadSignedHalfwordSignExtends(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(1, 0x30)
	if err := cpu.bus.Write(0x30, 0x8000, int(WidthHalf)); err != nil {
		t.Fatalf("seed memory: %v", err)
	}

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{
		Width: WidthHalf, SignExtend: true, Rd: 0, Rn: 1,
	}})

	if cpu.Reg(0) != 0xFFFF8000 {
		t.Fatalf("x0 = 0x%x, want 0xFFFF8000 (sign-extended -32768)", cpu.Reg(0))
	}
}

func TestLoadUnsignedByteZeroExtends(t *testing.T) {
	cpu := newTestCPU()
	cpu.SetReg(1, 0x40)
	if err := cpu.bus.Write(0x40, 0xFF, int(WidthByte)); err != nil {
		t.Fatalf("seed memory: %v", err)
	}

	runOne(t, cpu, Instruction{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{
		Width: WidthByte, Rd: 0, Rn: 1,
	}})

	if cpu.Reg(0) != 0xFF {
		t.Fatalf("x0 = 0x%x, want 0xFF (zero-extended)", cpu.Reg(0))
	}
}

func TestEncodeDecodeRoundTripLoadStore(t *testing.T) {
	cases := []Instruction{
		{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{Width: WidthWord, Rd: 0, Rn: 1, Op2: Operand2{Imm: true, ImmValue: 4}, WriteBack: true}},
		{Cond: CondAL, Op: OpSTR, Operands: LoadStoreOp{Width: WidthWord, Rd: 0, Rn: 1, Op2: Operand2{Imm: true, ImmValue: 8}, PostIndex: true}},
		{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{Width: WidthByte, SignExtend: true, Rd: 2, Rn: 3, Op2: Operand2{Rm: 4, Kind: ShiftLSL, Amount: 1}, PostIndex: true}},
		{Cond: CondAL, Op: OpLDR, Operands: LoadStoreOp{Width: WidthHalf, Rd: 0, Rn: 1, Op2: Operand2{Imm: true, ImmValue: 0}, PostIndex: true}},
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
