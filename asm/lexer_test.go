// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import "testing"

func TestStripComment(t *testing.T) {
	cases := map[string]string{
		`mov AL, 1 ; set AL`:        `mov AL, 1 `,
		`str msg "a;b"`:             `str msg "a;b"`,
		`str msg "a\";b"`:           `str msg "a\";b"`,
		`no comment here`:           `no comment here`,
		`; fully commented out`:     ``,
	}
	for in, want := range cases {
		if got := stripComment(in); got != want {
			t.Errorf("stripComment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReLabelDef(t *testing.T) {
	if !reLabelDef.MatchString("foo:") {
		t.Error("expected foo: to match a label definition")
	}
	if reLabelDef.MatchString("foo: bar") {
		t.Error("expected foo: bar to NOT match a bare label definition")
	}
}

func TestReDataLine(t *testing.T) {
	m := reDataLine.FindStringSubmatch(`u16 v 0x1234`)
	if m == nil {
		t.Fatal("expected a match")
	}
	if m[1] != "u16" || m[2] != "v" || m[3] != "0x1234" {
		t.Fatalf("got %v", m)
	}
}
