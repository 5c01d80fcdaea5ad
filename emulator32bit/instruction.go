// instruction.go - instruction encoding as a closed set of tagged operand kinds
//
// The 32-bit word format used by Encode/Decode:
//
//	31-28  cond          (4 bits, standard 16-value mnemonic table)
//	27-23  opcode        (5 bits)
//	22     S             (update flags)
//	21-17  rd            (5 bits)
//	16-12  rn             (5 bits)
//	11     I             (1 = operand-two is an immediate, 0 = register+shift)
//
// When I=0 and the opcode is not a multiply-long or branch-by-register:
//
//	10-6   rm            (5 bits, the register being shifted)
//	5-4    shift kind    (00=LSL 01=LSR 10=ASR 11=ROR)
//	3-0    shift amount  (4 bits, 0-15)
//
// When I=1: bits 10-0 hold an 11-bit unsigned immediate.
//
// UMULL/SMULL reuse bits 10-0 as rm (10-6) and rs (5-1); bit 0 is
// reserved. The register form of load/store addressing reuses the same
// rm/shift sub-fields as a data-processing operand-two. BX repurposes
// the rd slot (21-17) to hold its single register operand instead. BL/B
// use bits 21-0 as a signed, left-shifted word offset instead of the
// rd/rn/operand-two split.
//
// License: GPLv3 or later
package emulator32bit

import "github.com/pkg/errors"

// Op identifies an instruction's operation.
type Op int

const (
	OpADD Op = iota
	OpADC
	OpSUB
	OpSBC
	OpRSB
	OpRSC
	OpAND
	OpORR
	OpEOR
	OpBIC
	OpMVN
	OpUMULL
	OpSMULL
	OpCMP
	OpCMN
	OpTST
	OpTEQ
	OpB
	OpBL
	OpBX
	OpLDR
	OpSTR
	OpSWI
	OpNOP
	OpHALT
)

func (op Op) String() string {
	switch op {
	case OpADD:
		return "ADD"
	case OpADC:
		return "ADC"
	case OpSUB:
		return "SUB"
	case OpSBC:
		return "SBC"
	case OpRSB:
		return "RSB"
	case OpRSC:
		return "RSC"
	case OpAND:
		return "AND"
	case OpORR:
		return "ORR"
	case OpEOR:
		return "EOR"
	case OpBIC:
		return "BIC"
	case OpMVN:
		return "MVN"
	case OpUMULL:
		return "UMULL"
	case OpSMULL:
		return "SMULL"
	case OpCMP:
		return "CMP"
	case OpCMN:
		return "CMN"
	case OpTST:
		return "TST"
	case OpTEQ:
		return "TEQ"
	case OpB:
		return "B"
	case OpBL:
		return "BL"
	case OpBX:
		return "BX"
	case OpLDR:
		return "LDR"
	case OpSTR:
		return "STR"
	case OpSWI:
		return "SWI"
	case OpNOP:
		return "NOP"
	case OpHALT:
		return "HALT"
	default:
		return "UNKNOWN"
	}
}

// Cond is a 4-bit condition code evaluated against NZCV before an
// instruction executes.
type Cond uint8

const (
	CondEQ Cond = iota
	CondNE
	CondCS // HS
	CondCC // LO
	CondMI
	CondPL
	CondVS
	CondVC
	CondHI
	CondLS
	CondGE
	CondLT
	CondGT
	CondLE
	CondAL
	CondNV
)

// ShiftKind is the barrel shifter operation applied to a register
// operand-two.
type ShiftKind uint8

const (
	ShiftLSL ShiftKind = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// Width is the byte width of a load/store access.
type Width int

const (
	WidthByte Width = 1
	WidthHalf Width = 2
	WidthWord Width = 4
)

// Operands is implemented by every decoded operand-struct kind. It is a
// closed set: DataOp, MulLong, BranchOp, LoadStoreOp, SWIOp.
type Operands interface {
	isOperands()
}

// Operand2 is the decoded ALU operand-two: either an immediate or a
// register shifted by a barrel-shifter operation.
type Operand2 struct {
	Imm      bool
	ImmValue uint32
	Rm       uint8
	Kind     ShiftKind
	Amount   uint8
}

// DataOp carries the decoded operands of an ADD/ADC/.../TEQ instruction.
type DataOp struct {
	S   bool
	Rd  uint8
	Rn  uint8
	Op2 Operand2
}

func (DataOp) isOperands() {}

// MulLong carries the decoded operands of UMULL/SMULL.
type MulLong struct {
	S            bool
	RdLo, RdHi   uint8
	Rm, Rs       uint8
}

func (MulLong) isOperands() {}

// BranchOp carries the decoded operands of B/BL/BX.
type BranchOp struct {
	ByRegister bool
	Rm         uint8
	Offset     int32 // word offset, already shifted left 2, sign-extended
}

func (BranchOp) isOperands() {}

// LoadStoreOp carries the decoded operands of LDR/STR.
type LoadStoreOp struct {
	Width       Width
	SignExtend  bool
	Rd          uint8
	Rn          uint8
	Op2         Operand2
	PreIndex    bool
	WriteBack   bool
	PostIndex   bool
}

func (LoadStoreOp) isOperands() {}

// SWIOp carries the decoded operands of an SWI instruction: none beyond
// the condition field common to all instructions.
type SWIOp struct{}

func (SWIOp) isOperands() {}

// Instruction is a decoded 32-bit word: a condition, an operation, and
// the operand struct that operation's family uses.
type Instruction struct {
	Cond     Cond
	Op       Op
	Operands Operands
}

const (
	condShift = 28
	opShift   = 23
	sBit      = 1 << 22
	rdShift   = 17
	rnShift   = 12
	iBit      = 1 << 11
	rmShift   = 6
	kindShift = 4
)

func field(word uint32, shift uint, width uint) uint32 {
	return (word >> shift) & ((1 << width) - 1)
}

// Decode translates a raw 32-bit instruction word into its tagged
// Instruction form. It returns a BadInstr fault for an unrecognised
// opcode field.
func Decode(word uint32) (Instruction, error) {
	cond := Cond(field(word, condShift, 4))
	opcode := Op(field(word, opShift, 5))
	switch opcode {
	case OpADD, OpADC, OpSUB, OpSBC, OpRSB, OpRSC, OpAND, OpORR, OpEOR, OpBIC, OpMVN,
		OpCMP, OpCMN, OpTST, OpTEQ:
		return Instruction{Cond: cond, Op: opcode, Operands: decodeDataOp(word)}, nil
	case OpUMULL, OpSMULL:
		return Instruction{Cond: cond, Op: opcode, Operands: decodeMulLong(word)}, nil
	case OpB, OpBL:
		offset := int32(field(word, 0, 22))
		offset = (offset << 10) >> 10 // sign-extend 22-bit field
		return Instruction{Cond: cond, Op: opcode, Operands: BranchOp{Offset: offset << 2}}, nil
	case OpBX:
		return Instruction{Cond: cond, Op: opcode, Operands: BranchOp{ByRegister: true, Rm: uint8(field(word, rdShift, 5))}}, nil
	case OpLDR, OpSTR:
		return Instruction{Cond: cond, Op: opcode, Operands: decodeLoadStore(word)}, nil
	case OpSWI:
		return Instruction{Cond: cond, Op: opcode, Operands: SWIOp{}}, nil
	case OpNOP, OpHALT:
		return Instruction{Cond: cond, Op: opcode, Operands: SWIOp{}}, nil
	default:
		return Instruction{}, newFault(FaultBadInstr, 0)
	}
}

func decodeOperand2(word uint32) Operand2 {
	if word&iBit != 0 {
		return Operand2{Imm: true, ImmValue: field(word, 0, 11)}
	}
	return Operand2{
		Rm:     uint8(field(word, rmShift, 5)),
		Kind:   ShiftKind(field(word, kindShift, 2)),
		Amount: uint8(field(word, 0, 4)),
	}
}

func decodeDataOp(word uint32) DataOp {
	return DataOp{
		S:   word&sBit != 0,
		Rd:  uint8(field(word, rdShift, 5)),
		Rn:  uint8(field(word, rnShift, 5)),
		Op2: decodeOperand2(word),
	}
}

func decodeMulLong(word uint32) MulLong {
	return MulLong{
		S:    word&sBit != 0,
		RdLo: uint8(field(word, rdShift, 5)),
		RdHi: uint8(field(word, rnShift, 5)),
		Rm:   uint8(field(word, rmShift, 5)),
		Rs:   uint8(field(word, 1, 5)),
	}
}

func decodeLoadStore(word uint32) LoadStoreOp {
	width := Width(1 << field(word, 9, 2))
	return LoadStoreOp{
		Width:      width,
		SignExtend: word&(1<<8) != 0,
		Rd:         uint8(field(word, rdShift, 5)),
		Rn:         uint8(field(word, rnShift, 5)),
		Op2:        decodeOperand2(word),
		PreIndex:   word&(1<<21) != 0 && word&sBit == 0,
		WriteBack:  word&sBit != 0 && word&(1<<21) != 0,
		PostIndex:  word&(1<<21) == 0,
	}
}

// Encode is the inverse of Decode: it is the single source of truth for
// the bit layout, and Decode(Encode(i)) == i for every representable
// Instruction.
func Encode(i Instruction) (uint32, error) {
	word := uint32(i.Cond)<<condShift | uint32(i.Op)<<opShift
	switch ops := i.Operands.(type) {
	case DataOp:
		word |= encodeDataOp(ops)
	case MulLong:
		word |= encodeMulLong(ops)
	case BranchOp:
		if ops.ByRegister {
			word |= uint32(ops.Rm) << rdShift
		} else {
			word |= (uint32(ops.Offset>>2) & ((1 << 22) - 1))
		}
	case LoadStoreOp:
		word |= encodeLoadStore(ops)
	case SWIOp:
		// no additional fields
	default:
		return 0, errors.Errorf("encode: unsupported operand kind %T", ops)
	}
	return word, nil
}

func encodeOperand2(op2 Operand2) uint32 {
	if op2.Imm {
		return iBit | (op2.ImmValue & ((1 << 11) - 1))
	}
	return uint32(op2.Rm)<<rmShift | uint32(op2.Kind)<<kindShift | uint32(op2.Amount&0xF)
}

func encodeDataOp(d DataOp) uint32 {
	var word uint32
	if d.S {
		word |= sBit
	}
	word |= uint32(d.Rd) << rdShift
	word |= uint32(d.Rn) << rnShift
	word |= encodeOperand2(d.Op2)
	return word
}

func encodeMulLong(m MulLong) uint32 {
	var word uint32
	if m.S {
		word |= sBit
	}
	word |= uint32(m.RdLo) << rdShift
	word |= uint32(m.RdHi) << rnShift
	word |= uint32(m.Rm) << rmShift
	word |= uint32(m.Rs) << 1
	return word
}

func encodeLoadStore(l LoadStoreOp) uint32 {
	var word uint32
	var widthBits uint32
	switch l.Width {
	case WidthByte:
		widthBits = 0
	case WidthHalf:
		widthBits = 1
	case WidthWord:
		widthBits = 2
	}
	word |= widthBits << 9
	if l.SignExtend {
		word |= 1 << 8
	}
	word |= uint32(l.Rd) << rdShift
	word |= uint32(l.Rn) << rnShift
	word |= encodeOperand2(l.Op2)
	if l.PreIndex {
		word |= 1 << 21
	}
	if l.WriteBack {
		word |= sBit | 1<<21
	}
	return word
}
