// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import (
	"bytes"
	"strings"
	"testing"
)

func newTestAssembler() *Assembler {
	a := &Assembler{user: newSegment(), kernel: newSegment(), section: sectionText}
	return a
}

func TestEncodeJumpInverseBit(t *testing.T) {
	a := newTestAssembler()
	reg, _ := classifyOperand("EAX")
	if err := a.encodeInstruction("jnz", []Operand{reg}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// JZ opcode, MOD = 1 (register) | 2 (inverse) = 3, then the register code.
	want := []byte{byte(OpJz), 3, regIndex["EAX"]}
	if !bytes.Equal(a.user.text, want) {
		t.Fatalf("got % x, want % x", a.user.text, want)
	}
}

func TestEncodeJumpRegisterMustBe32Bit(t *testing.T) {
	a := newTestAssembler()
	reg, _ := classifyOperand("AX")
	if err := a.encodeInstruction("jmp", []Operand{reg}); err == nil {
		t.Fatal("expected an error: jmp requires a 32-bit register operand")
	}
}

func TestEncodeLoadStoreWidthMismatch(t *testing.T) {
	a := newTestAssembler()
	dst, _ := classifyOperand("EAX")
	src, _ := classifyOperand("@0x100")
	if err := a.encodeInstruction("lb", []Operand{dst, src}); err == nil {
		t.Fatal("expected a width-mismatch error: lb requires an 8-bit register")
	}
}

func TestEncodeLoadAbsolute(t *testing.T) {
	a := newTestAssembler()
	dst, _ := classifyOperand("AL")
	src, _ := classifyOperand("@0x100")
	if err := a.encodeInstruction("lb", []Operand{dst, src}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{byte(OpLb), 1 << shiftAddrMode, regIndex["AL"], 0x00, 0x01, 0x00, 0x00}
	if !bytes.Equal(a.user.text, want) {
		t.Fatalf("got % x, want % x", a.user.text, want)
	}
}

func TestEncodePushWidthMustMatchSuffix(t *testing.T) {
	a := newTestAssembler()
	imm, _ := classifyOperand("0x100") // fits in 16 bits
	if err := a.encodeInstruction("push", []Operand{imm}); err == nil {
		t.Fatal("expected an error: 16-bit-fitting immediate pushed with 8-bit push")
	}
}

func TestEncodePushMatchingWidthAccepted(t *testing.T) {
	a := newTestAssembler()
	imm, _ := classifyOperand("0x100")
	if err := a.encodeInstruction("pushw", []Operand{imm}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEncodeArith2SignednessMismatch(t *testing.T) {
	a := newTestAssembler()
	reg, _ := classifyOperand("AL")
	simm, _ := classifyOperand("-1")
	if err := a.encodeInstruction("add", []Operand{reg, simm}); err == nil {
		t.Fatal("expected an error: unsigned add with a signed immediate")
	}
}

func TestEncodeArith1SignedImmediate(t *testing.T) {
	a := newTestAssembler()
	simm, _ := classifyOperand("-5")
	if err := a.encodeInstruction("smul", []Operand{simm}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.user.text[0] != byte(OpMul) {
		t.Fatalf("expected MUL opcode, got 0x%02x", a.user.text[0])
	}
	if a.user.text[1]&(1<<shiftSign) == 0 {
		t.Fatalf("expected the sign bit set in the control byte, got 0x%02x", a.user.text[1])
	}
}

func TestEncodeArith1UnsignedRejectsSigned(t *testing.T) {
	a := newTestAssembler()
	simm, _ := classifyOperand("-5")
	if err := a.encodeInstruction("mul", []Operand{simm}); err == nil {
		t.Fatal("expected an error: unsigned mul with a signed immediate")
	}
}

func TestEncodeUnknownInstruction(t *testing.T) {
	a := newTestAssembler()
	if err := a.encodeInstruction("frobnicate", nil); err == nil {
		t.Fatal("expected an error for an unknown mnemonic")
	} else if !strings.Contains(err.Error(), "invalid instruction") {
		t.Fatalf("unexpected error text: %v", err)
	}
}

func TestEncodeNotRegisterOnly(t *testing.T) {
	a := newTestAssembler()
	imm, _ := classifyOperand("1")
	if err := a.encodeInstruction("not", []Operand{imm}); err == nil {
		t.Fatal("expected an error: not requires a register operand")
	}
}
