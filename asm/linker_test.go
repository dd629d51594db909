// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import "testing"

func TestDefineLabelCrossTableDuplicate(t *testing.T) {
	s := newSegment()
	if err := s.defineLabel("foo", true, Pos{File: "x", Line: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.defineLabel("foo", false, Pos{File: "x", Line: 2}); err == nil {
		t.Fatal("expected a duplicate-label error across text and data tables")
	}
}

func TestResolveTargetsDataAfterText(t *testing.T) {
	s := newSegment()
	s.text = append(s.text, 0, 0, 0) // 3 bytes of text
	s.data = append(s.data, 0, 0)    // 2 bytes of data
	if err := s.defineLabel("d", false, Pos{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// d is defined at the current end of the data buffer (data offset 2),
	// which lands at text-buffer-relative offset len(text) + 2.
	s.text = append(s.text, 0xAA, 0xAA, 0xAA, 0xAA) // placeholder
	s.fixups = append(s.fixups, fixup{name: "d", replacePos: 3, currentIP: 7})

	if err := s.resolve("test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// target = 9 (final text len 7 + data offset 2), currentIP = 7, displacement = +2.
	want := []byte{0x02, 0x00, 0x00, 0x00}
	for i, b := range want {
		if s.text[3+i] != b {
			t.Fatalf("got % x, want % x", s.text[3:7], want)
		}
	}
}

func TestResolveUnresolvedLabel(t *testing.T) {
	s := newSegment()
	s.text = append(s.text, 0, 0, 0, 0)
	s.fixups = append(s.fixups, fixup{name: "nowhere", replacePos: 0, currentIP: 4, pos: Pos{File: "f", Line: 9}})
	err := s.resolve("test")
	if err == nil {
		t.Fatal("expected an unresolved-label error")
	}
	ae, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if ae.Pos.Line != 9 {
		t.Fatalf("expected the error to carry the reference's line (9), got %d", ae.Pos.Line)
	}
}

func TestSeedBootstrapLength(t *testing.T) {
	s := newSegment()
	seedBootstrap(s, "_start")
	if len(s.text) != bootstrapLen {
		t.Fatalf("expected a %d-byte bootstrap jump, got %d", bootstrapLen, len(s.text))
	}
	if len(s.fixups) != 1 || s.fixups[0].name != "_start" {
		t.Fatalf("expected one fix-up targeting _start, got %+v", s.fixups)
	}
}
