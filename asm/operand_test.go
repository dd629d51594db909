// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import "testing"

func TestClassifyOperandLiterals(t *testing.T) {
	cases := []struct {
		tok  string
		kind OperandKind
	}{
		{"0x1F", KindImm},
		{"31", KindImm},
		{"+0x1F", KindSImm},
		{"-31", KindSImm},
		{"EAX", KindReg32},
		{"AX", KindReg16},
		{"AL", KindReg8},
		{"@0x1000", KindAddr},
		{"[IP+4]", KindRel32},
		{"[EBX-8]", KindRel32},
		{"myLabel", KindLabel},
	}
	for _, c := range cases {
		op, err := classifyOperand(c.tok)
		if err != nil {
			t.Errorf("classifyOperand(%q): unexpected error: %v", c.tok, err)
			continue
		}
		if op.Kind != c.kind {
			t.Errorf("classifyOperand(%q): got kind %v, want %v", c.tok, op.Kind, c.kind)
		}
	}
}

func TestClassifyOperandRel32Offsets(t *testing.T) {
	op, err := classifyOperand("[IP-8]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op.Kind != KindRel32 || op.Base != regIP || op.Off != -8 {
		t.Fatalf("got %+v", op)
	}
}

func TestClassifyOperandInvalid(t *testing.T) {
	for _, tok := range []string{"", "0xZZ", "[EAX]", "@notHex", "1foo"} {
		if _, err := classifyOperand(tok); err == nil {
			t.Errorf("classifyOperand(%q): expected an error", tok)
		}
	}
}

func TestBaseRegCode(t *testing.T) {
	if r, ok := baseRegCode("IP"); !ok || r != regIP {
		t.Fatalf("expected IP to resolve to regIP, got %d, %v", r, ok)
	}
	if r, ok := baseRegCode("EAX"); !ok || r != regIndex["EAX"] {
		t.Fatalf("expected EAX to resolve to its register code, got %d, %v", r, ok)
	}
	if _, ok := baseRegCode("AX"); ok {
		t.Fatalf("expected a 16-bit register to be rejected as a base")
	}
}
