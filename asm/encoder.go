// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import "strings"

// jumpVariant describes one mnemonic of the jump-like family (§4.3 family 2):
// the opcode it shares with its predicate pair, and whether it is the
// "inverse" half of that pair (jnz vs jz, and so on).
type jumpVariant struct {
	op      Opcode
	inverse bool
}

var jumpFamily = map[string]jumpVariant{
	"call": {OpCall, false},
	"jmp":  {OpJmp, false},
	"jz":   {OpJz, false},
	"jnz":  {OpJz, true},
	"jc":   {OpJc, false},
	"jnc":  {OpJc, true},
	"jo":   {OpJo, false},
	"jno":  {OpJo, true},
	"js":   {OpJs, false},
	"jns":  {OpJs, true},
	"jp":   {OpJp, false},
	"jnp":  {OpJp, true},
}

var zeroOperand = map[string]Opcode{
	"nop":     OpNop,
	"syscall": OpSyscall,
	"sysret":  OpSysret,
	"ret":     OpRet,
	"dbg":     OpDbg,
	"hlt":     OpHlt,
}

// encodeInstruction selects the opcode and composes the MOD/control byte and
// operand bytes for one instruction line (§4.3), appending to the active
// segment's text buffer and recording any pending label fix-up.
func (a *Assembler) encodeInstruction(mnemonic string, args []Operand) error {
	if op, ok := zeroOperand[mnemonic]; ok {
		if len(args) != 0 {
			return errf("wrong number of operands for %s: expected 0, got %d", mnemonic, len(args))
		}
		a.emitOp(op)
		return nil
	}
	if jv, ok := jumpFamily[mnemonic]; ok {
		return a.encodeJumpLike(mnemonic, jv, args)
	}
	switch mnemonic {
	case "uret":
		return a.encodeURet(args)
	case "setsyscall":
		return a.encodeSetSyscall(args)
	case "mov":
		return a.encodeMov(args)
	case "lb", "lw", "ldw", "sb", "sw", "sdw":
		return a.encodeLoadStore(mnemonic, args)
	case "push", "pushw", "pushdw":
		return a.encodePush(mnemonic, args)
	case "pop", "popw", "popdw":
		return a.encodePop(mnemonic, args)
	case "cmp", "scmp", "and", "or", "xor", "add", "sadd", "sub", "ssub":
		return a.encodeArith2(mnemonic, args)
	case "mul", "smul":
		return a.encodeArith1(mnemonic, args)
	case "not":
		return a.encodeNot(args)
	default:
		return errf("invalid instruction: %s", mnemonic)
	}
}

// emitOp appends mnemonic's opcode byte to the active segment's text buffer.
func (a *Assembler) emitOp(op Opcode) {
	s := a.seg()
	s.text = append(s.text, byte(op))
}

// emitLabelRef writes the IP base-register byte, reserves the 4-byte
// placeholder, and records the pending fix-up for a label operand.
func (a *Assembler) emitLabelRef(name string) {
	s := a.seg()
	s.text = append(s.text, regIP)
	replacePos := len(s.text)
	s.text = append(s.text, 0, 0, 0, 0)
	s.fixups = append(s.fixups, fixup{name: name, replacePos: replacePos, currentIP: len(s.text), pos: a.pos})
}

// emitRelOperand appends a Rel32 or Label operand's base register and
// displacement (literal for Rel32, placeholder + fix-up for Label).
func (a *Assembler) emitRelOperand(op Operand) error {
	if op.Kind == KindLabel {
		a.emitLabelRef(op.Label)
		return nil
	}
	s := a.seg()
	s.text = append(s.text, op.Base)
	return appendSigned(&s.text, int64(op.Off), 32)
}

// emitImmOfWidth appends an Imm or SImm operand's value at a fixed bit width,
// using the encoding matching its own signedness (the caller has already
// chosen the width from the destination register/instruction).
func emitImmOfWidth(s *segment, b Operand, bits int) error {
	if b.Kind == KindSImm {
		return appendSigned(&s.text, b.SImm, bits)
	}
	return appendUnsigned(&s.text, b.Imm, bits)
}

func (a *Assembler) encodeJumpLike(mnemonic string, jv jumpVariant, args []Operand) error {
	if len(args) != 1 {
		return errf("wrong number of operands for %s: expected 1, got %d", mnemonic, len(args))
	}
	a.emitOp(jv.op)
	s := a.seg()
	arg := args[0]
	var inv byte
	if jv.inverse {
		inv = 1 << shiftInverse
	}
	switch {
	case arg.isMemory():
		cbyte := inv | (addrModeRelative << shiftAddrMode)
		s.text = append(s.text, cbyte)
		return a.emitRelOperand(arg)
	case arg.Kind == KindAddr:
		cbyte := inv | (addrModeAbsolute << shiftAddrMode)
		s.text = append(s.text, cbyte)
		return appendUnsigned(&s.text, uint64(arg.Addr), 32)
	case arg.Kind == KindReg32:
		s.text = append(s.text, 1|inv, arg.Reg)
		return nil
	default:
		return errf("invalid argument format to %s", strings.ToUpper(mnemonic))
	}
}

func (a *Assembler) encodeURet(args []Operand) error {
	if len(args) != 2 {
		return errf("wrong number of operands for URET: expected 2, got %d", len(args))
	}
	a.emitOp(OpUret)
	if args[0].Kind != KindAddr || args[1].Kind != KindAddr {
		return errf("invalid argument format to URET")
	}
	s := a.seg()
	if err := appendUnsigned(&s.text, uint64(args[0].Addr), 32); err != nil {
		return err
	}
	return appendUnsigned(&s.text, uint64(args[1].Addr), 32)
}

func (a *Assembler) encodeSetSyscall(args []Operand) error {
	if len(args) != 2 {
		return errf("wrong number of operands for SETSYSCALL: expected 2, got %d", len(args))
	}
	a.emitOp(OpSetSyscall)
	if args[0].Kind != KindImm || !args[1].isMemory() {
		return errf("invalid argument format to SETSYSCALL")
	}
	s := a.seg()
	if err := appendUnsigned(&s.text, args[0].Imm, 8); err != nil {
		return err
	}
	return a.emitRelOperand(args[1])
}

func (a *Assembler) encodeMov(args []Operand) error {
	if len(args) != 2 {
		return errf("wrong number of operands for MOV: expected 2, got %d", len(args))
	}
	a.emitOp(OpMov)
	A, B := args[0], args[1]
	s := a.seg()
	switch {
	case A.Kind == KindReg8 && B.isImmediate():
		s.text = append(s.text, 0, A.Reg)
		return emitImmOfWidth(s, B, 8)
	case A.Kind == KindReg16 && B.isImmediate():
		s.text = append(s.text, 1, A.Reg)
		return emitImmOfWidth(s, B, 16)
	case A.Kind == KindReg32 && B.isImmediate():
		s.text = append(s.text, 2, A.Reg)
		return emitImmOfWidth(s, B, 32)
	case A.Kind == KindReg8 && B.Kind == KindReg8:
		s.text = append(s.text, 3, A.Reg, B.Reg)
		return nil
	case A.Kind == KindReg16 && B.Kind == KindReg16:
		s.text = append(s.text, 4, A.Reg, B.Reg)
		return nil
	case A.Kind == KindReg32 && B.Kind == KindReg32:
		s.text = append(s.text, 5, A.Reg, B.Reg)
		return nil
	case A.Kind == KindReg32 && B.isMemory():
		s.text = append(s.text, 6, A.Reg)
		return a.emitRelOperand(B)
	default:
		return errf("invalid argument format to MOV")
	}
}

// widthFor returns the operand bit width selected by a mnemonic's b/w/dw
// suffix (no suffix = 8, w = 16, dw = 32), shared by lb/sb, push and pop.
func widthFor(mnemonic string) int {
	switch {
	case strings.HasSuffix(mnemonic, "dw"):
		return 32
	case strings.HasSuffix(mnemonic, "w"):
		return 16
	default:
		return 8
	}
}

func modForWidth(regMod bool, width int) byte {
	// regMod picks the register-operand MOD series {0,2,4}; otherwise the
	// immediate/second-register series {1,3,5}.
	var base byte
	switch width {
	case 8:
		base = 0
	case 16:
		base = 2
	case 32:
		base = 4
	}
	if regMod {
		return base
	}
	return base + 1
}

func (a *Assembler) encodeLoadStore(mnemonic string, args []Operand) error {
	if len(args) != 2 {
		return errf("wrong number of operands for %s: expected 2, got %d", mnemonic, len(args))
	}
	var op Opcode
	if mnemonic[0] == 'l' {
		op = OpLb
	} else {
		op = OpSb
	}
	width := widthFor(mnemonic)
	a.emitOp(op)

	A, B := args[0], args[1]
	if !A.isRegister() || A.width() != width {
		return errf("invalid argument format to %s: destination register width mismatch", strings.ToUpper(mnemonic))
	}
	s := a.seg()
	modBase := modForWidth(true, width)
	switch {
	case B.isMemory():
		cbyte := modBase | (addrModeRelative << shiftAddrMode)
		s.text = append(s.text, cbyte, A.Reg)
		return a.emitRelOperand(B)
	case B.Kind == KindAddr:
		cbyte := modBase | (addrModeAbsolute << shiftAddrMode)
		s.text = append(s.text, cbyte, A.Reg)
		return appendUnsigned(&s.text, uint64(B.Addr), 32)
	case B.Kind == KindReg32:
		s.text = append(s.text, modForWidth(false, width), A.Reg, B.Reg)
		return nil
	default:
		return errf("invalid argument format to %s", strings.ToUpper(mnemonic))
	}
}

func (a *Assembler) encodePush(mnemonic string, args []Operand) error {
	if len(args) != 1 {
		return errf("wrong number of operands for %s: expected 1, got %d", mnemonic, len(args))
	}
	a.emitOp(OpPush)
	instWidth := widthFor(mnemonic)
	A := args[0]
	s := a.seg()
	switch {
	case A.isRegister():
		if A.width() != instWidth {
			return errf("invalid argument format to %s: register width mismatch", strings.ToUpper(mnemonic))
		}
		s.text = append(s.text, modForWidth(true, instWidth), A.Reg)
		return nil
	case A.Kind == KindImm:
		w := fitWidthUnsigned(A.Imm)
		if w == 0 || w != instWidth {
			return errf("invalid argument format to %s: immediate width mismatch", strings.ToUpper(mnemonic))
		}
		s.text = append(s.text, modForWidth(false, w))
		return appendUnsigned(&s.text, A.Imm, w)
	case A.Kind == KindSImm:
		w := fitWidthSigned(A.SImm)
		if w == 0 || w != instWidth {
			return errf("invalid argument format to %s: immediate width mismatch", strings.ToUpper(mnemonic))
		}
		s.text = append(s.text, modForWidth(false, w))
		return appendSigned(&s.text, A.SImm, w)
	default:
		return errf("invalid argument format to %s", strings.ToUpper(mnemonic))
	}
}

func (a *Assembler) encodePop(mnemonic string, args []Operand) error {
	if len(args) > 1 {
		return errf("wrong number of operands for %s: expected 0 or 1, got %d", mnemonic, len(args))
	}
	a.emitOp(OpPop)
	instWidth := widthFor(mnemonic)
	s := a.seg()
	if len(args) == 0 {
		s.text = append(s.text, modForWidth(false, instWidth))
		return nil
	}
	A := args[0]
	if !A.isRegister() || A.width() != instWidth {
		return errf("invalid argument format to %s", strings.ToUpper(mnemonic))
	}
	s.text = append(s.text, modForWidth(true, instWidth), A.Reg)
	return nil
}

func (a *Assembler) encodeArith2(mnemonic string, args []Operand) error {
	if len(args) != 2 {
		return errf("wrong number of operands for %s: expected 2, got %d", mnemonic, len(args))
	}
	var op Opcode
	switch mnemonic {
	case "cmp", "scmp":
		op = OpCmp
	case "and":
		op = OpAnd
	case "or":
		op = OpOr
	case "xor":
		op = OpXor
	case "add", "sadd":
		op = OpAdd
	case "sub", "ssub":
		op = OpSub
	}
	isSigned := mnemonic == "scmp" || mnemonic == "sadd" || mnemonic == "ssub"
	a.emitOp(op)

	A, B := args[0], args[1]
	if isSigned && B.Kind == KindImm {
		return errf("%s requires a signed immediate operand", strings.ToUpper(mnemonic))
	}
	if !isSigned && B.Kind == KindSImm {
		return errf("%s requires an unsigned immediate operand", strings.ToUpper(mnemonic))
	}
	s := a.seg()
	switch {
	case A.Kind == KindReg8 && B.isImmediate():
		cb := byte(0)
		if B.Kind == KindSImm {
			cb |= 1 << shiftSign
		}
		s.text = append(s.text, cb, A.Reg)
		return emitImmOfWidth(s, B, 8)
	case A.Kind == KindReg16 && B.isImmediate():
		cb := byte(1)
		if B.Kind == KindSImm {
			cb |= 1 << shiftSign
		}
		s.text = append(s.text, cb, A.Reg)
		return emitImmOfWidth(s, B, 16)
	case A.Kind == KindReg32 && B.isImmediate():
		cb := byte(2)
		if B.Kind == KindSImm {
			cb |= 1 << shiftSign
		}
		s.text = append(s.text, cb, A.Reg)
		return emitImmOfWidth(s, B, 32)
	case A.Kind == B.Kind && A.isRegister():
		var cb byte
		switch A.Kind {
		case KindReg8:
			cb = 3
		case KindReg16:
			cb = 4
		case KindReg32:
			cb = 5
		}
		s.text = append(s.text, cb, A.Reg, B.Reg)
		return nil
	default:
		return errf("invalid argument format to %s", strings.ToUpper(mnemonic))
	}
}

func (a *Assembler) encodeArith1(mnemonic string, args []Operand) error {
	if len(args) != 1 {
		return errf("wrong number of operands for %s: expected 1, got %d", mnemonic, len(args))
	}
	a.emitOp(OpMul)
	isSigned := mnemonic == "smul"
	A := args[0]
	if isSigned && A.Kind == KindImm {
		return errf("SMUL requires a signed immediate operand")
	}
	if !isSigned && A.Kind == KindSImm {
		return errf("MUL requires an unsigned immediate operand")
	}
	s := a.seg()
	var signBit byte
	if isSigned {
		signBit = 1 << shiftSign
	}
	switch {
	case A.isImmediate():
		var width int
		if isSigned {
			width = fitWidthSigned(A.SImm)
		} else {
			width = fitWidthUnsigned(A.Imm)
		}
		if width == 0 {
			return errf("immediate out of range for %s", strings.ToUpper(mnemonic))
		}
		var cb byte
		switch width {
		case 16:
			cb = 1
		case 32:
			cb = 2
		}
		cb |= signBit
		s.text = append(s.text, cb)
		if isSigned {
			return appendSigned(&s.text, A.SImm, width)
		}
		return appendUnsigned(&s.text, A.Imm, width)
	case A.Kind == KindReg8:
		s.text = append(s.text, 3|signBit, A.Reg)
		return nil
	case A.Kind == KindReg16:
		s.text = append(s.text, 4|signBit, A.Reg)
		return nil
	case A.Kind == KindReg32:
		s.text = append(s.text, 5|signBit, A.Reg)
		return nil
	default:
		return errf("invalid argument format to %s", strings.ToUpper(mnemonic))
	}
}

func (a *Assembler) encodeNot(args []Operand) error {
	if len(args) != 1 {
		return errf("wrong number of operands for NOT: expected 1, got %d", len(args))
	}
	a.emitOp(OpNot)
	A := args[0]
	s := a.seg()
	switch A.Kind {
	case KindReg8:
		s.text = append(s.text, 0, A.Reg)
	case KindReg16:
		s.text = append(s.text, 1, A.Reg)
	case KindReg32:
		s.text = append(s.text, 2, A.Reg)
	default:
		return errf("invalid argument format to NOT")
	}
	return nil
}
