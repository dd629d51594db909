// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import "github.com/travis-heavener/tpu3/asmimg"

// fixup is a deferred write of a 32-bit signed displacement into a
// placeholder slot in a text buffer, resolved once every source file has
// been consumed (§4.4). pos is the source position of the *reference*
// (the instruction that produced it), not of the eventual resolution, so
// that an unresolved-label error points at the right place (§7).
type fixup struct {
	name       string
	replacePos int
	currentIP  int
	pos        Pos
}

// segment is one image half (user or kernel): its text and data buffers, the
// label tables that index into them, and the fix-ups still pending against
// its text buffer. Data segments never host instructions and therefore never
// host fix-ups (§3 invariant 1).
type segment struct {
	text []byte
	data []byte

	textLabels map[string]int
	dataLabels map[string]int

	fixups []fixup
}

func newSegment() *segment {
	return &segment{
		textLabels: make(map[string]int),
		dataLabels: make(map[string]int),
	}
}

// defineLabel records name at the current end of the text or data buffer,
// enforcing uniqueness across both tables combined (§3 invariant 2).
func (s *segment) defineLabel(name string, inText bool, pos Pos) error {
	if _, ok := s.textLabels[name]; ok {
		return newError(pos, "Duplicate label: "+name)
	}
	if _, ok := s.dataLabels[name]; ok {
		return newError(pos, "Duplicate label: "+name)
	}
	if inText {
		s.textLabels[name] = len(s.text)
	} else {
		s.dataLabels[name] = len(s.data)
	}
	return nil
}

// resolve rewrites every pending fix-up's placeholder with the two's
// complement 32-bit little-endian displacement to its target label (§4.4).
func (s *segment) resolve(halfName string) error {
	textLen := len(s.text)
	for _, f := range s.fixups {
		var target int
		if pos, ok := s.textLabels[f.name]; ok {
			target = pos
		} else if pos, ok := s.dataLabels[f.name]; ok {
			target = textLen + pos
		} else {
			return newError(f.pos, "Unable to locate "+halfName+" segment label: "+f.name)
		}
		offset := int64(target - f.currentIP)
		if !fitsSigned(offset, 32) {
			return newError(f.pos, "Displacement to label "+f.name+" exceeds signed 32-bit range")
		}
		buf := s.text
		uval := uint64(offset) & 0xFFFFFFFF
		buf[f.replacePos] = byte(uval)
		buf[f.replacePos+1] = byte(uval >> 8)
		buf[f.replacePos+2] = byte(uval >> 16)
		buf[f.replacePos+3] = byte(uval >> 24)
	}
	return nil
}

// bootstrapLen is the size in bytes of the `jmp [IP + 0]` instruction seeded
// at the start of every image half.
const bootstrapLen = 7

// seedBootstrap pre-seeds s with a 7-byte `jmp [IP + 0]` targeting label and
// registers the corresponding fix-up (§4.4).
func seedBootstrap(s *segment, label string) {
	s.text = append(s.text, byte(OpJmp), 0, regIP, 0, 0, 0, 0)
	s.fixups = append(s.fixups, fixup{name: label, replacePos: 3, currentIP: bootstrapLen})
}

// finish resolves every pending fix-up and checks the empty-program
// boundary case (§8): a half whose text buffer holds nothing but the
// bootstrap jump is rejected.
func (s *segment) finish(halfName string, eofPos Pos) error {
	if err := s.resolve(halfName); err != nil {
		return err
	}
	if len(s.text) == bootstrapLen {
		return newError(eofPos, "empty "+halfName+" program: no instructions besides the bootstrap jump")
	}
	return nil
}

// image assembles the final four-segment container from the user and kernel
// halves, per §4.4 and §6.6.
func (a *Assembler) image() asmimg.Image {
	return asmimg.Image{
		KernelText: a.kernel.text,
		KernelData: a.kernel.data,
		UserText:   a.user.text,
		UserData:   a.user.data,
	}
}
