// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

// Package asm implements the TPU assembler: the translation from TPU
// assembly source to the binary image consumed by the TPU runtime.
//
// Supported sections (§6.4): text, data, kernel, kernel-data. Supported
// instruction mnemonics (§4.3): nop, syscall, sysret, call, ret, jmp,
// jz/jnz, jc/jnc, jo/jno, js/jns, jp/jnp, dbg, hlt, uret, setsyscall, mov,
// lb/lw/ldw, sb/sw/sdw, push/pushw/pushdw, pop/popw/popdw, cmp/scmp, and,
// or, xor, not, add/sadd, sub/ssub, mul/smul. Supported data directives
// (§6.3): u8/u16/u32, s8/s16/s32, str, strz, space.
//
// Every image half (kernel and user) is pre-seeded with a 7-byte bootstrap
// jump to `_kernel_start`/`_start` respectively (§4.4). `_start` is therefore
// implicitly required of every program; `_kernel_start` is required only of
// programs that enter a `kernel` or `kernel-data` section, since otherwise
// the kernel half is emitted empty.
//
// Forward label references (in either text or data, in either image half)
// are patched once the full size of every code fragment is known, via a
// two-pass mechanism: the encoder reserves placeholder bytes and records a
// fix-up, and the linker step rewrites every placeholder with the resolved
// signed 32-bit displacement.
package asm

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/travis-heavener/tpu3/asmimg"
)

// Assembler holds all process-scoped state for one assembly run: the four
// byte buffers and label tables (as two segments), the current section, and
// the include stack used for cycle detection (§3).
type Assembler struct {
	user   *segment
	kernel *segment

	section       sectionKind
	kernelTouched bool
	pos           Pos

	includeStack []string
}

// NewAssembler returns an Assembler ready to process input, with both image
// halves pre-seeded with their bootstrap jump (§4.4).
func NewAssembler() *Assembler {
	a := &Assembler{
		user:   newSegment(),
		kernel: newSegment(),
	}
	seedBootstrap(a.user, "_start")
	seedBootstrap(a.kernel, "_kernel_start")
	return a
}

// Assemble assembles the TPU source file at path (and any files it
// transitively includes) into a complete binary image.
func Assemble(path string) (asmimg.Image, error) {
	a := NewAssembler()
	if err := a.assembleFile(path); err != nil {
		return asmimg.Image{}, err
	}
	return a.finish()
}

// AssembleReader assembles TPU source read from r, named name for error
// reporting and for resolving any relative `include` directives it
// contains. Its name is not placed on the include stack, since it has no
// filesystem path to canonicalize, so r itself is not checked for include
// cycles; the files it includes are.
func AssembleReader(name string, r io.Reader) (asmimg.Image, error) {
	a := NewAssembler()
	if err := a.assembleReader(name, r); err != nil {
		return asmimg.Image{}, err
	}
	return a.finish()
}

// finish resolves and validates both image halves. The kernel half is only
// held to the bootstrap-jump / `_kernel_start` requirement if a `kernel` or
// `kernel-data` section was actually entered; a program that never
// references the kernel at all gets a genuinely empty kernel half instead
// (§8 scenario 1), since the bootstrap is meaningless without kernel code
// to jump into.
func (a *Assembler) finish() (asmimg.Image, error) {
	if err := a.user.finish("user", a.pos); err != nil {
		return asmimg.Image{}, err
	}
	if !a.kernelTouched {
		a.kernel = newSegment()
		return a.image(), nil
	}
	if err := a.kernel.finish("kernel", a.pos); err != nil {
		return asmimg.Image{}, err
	}
	return a.image(), nil
}

// seg returns the segment targeted by the current section.
func (a *Assembler) seg() *segment {
	if a.section.isKernel() {
		return a.kernel
	}
	return a.user
}

// assembleFile opens path, pushes its canonical form onto the include stack
// (detecting cycles), assembles it, and pops the stack on return, restoring
// the including file's position for subsequent error reporting (§4.1, §5).
func (a *Assembler) assembleFile(path string) error {
	canon, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	canon = filepath.Clean(canon)

	for _, p := range a.includeStack {
		if p == canon {
			return newError(a.pos, "Include cycle detected: "+path)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	a.includeStack = append(a.includeStack, canon)
	savedPos := a.pos
	err = a.assembleReader(path, f)
	a.includeStack = a.includeStack[:len(a.includeStack)-1]
	a.pos = savedPos

	return err
}

// assembleReader reads name line by line and processes each one in turn,
// aborting on the first error (§5, §7).
func (a *Assembler) assembleReader(name string, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		a.pos = Pos{File: name, Line: line}
		if err := a.processLine(sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return nil
}
