// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	reInclude = regexp.MustCompile(`^include\s+(\S+)$`)
	reSection = regexp.MustCompile(`^section\s+(\S+)$`)
	reLabelDef = regexp.MustCompile(`^([_A-Za-z][_A-Za-z0-9]*):$`)
	reDataLine = regexp.MustCompile(`^(u8|u16|u32|s8|s16|s32|str|strz|space)\s+([_A-Za-z][_A-Za-z0-9]*)\s+(.+)$`)
)

// stripComment removes a line's comment suffix: a comment begins at the
// first ';' that is not inside a double-quoted string literal. A backslash
// inside an active string literal escapes the next character (§4.1).
func stripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inString = !inString
		case '\\':
			if inString {
				i++
			}
		case ';':
			if !inString {
				return line[:i]
			}
		}
	}
	return line
}

// processLine normalizes, classifies, and dispatches one source line.
func (a *Assembler) processLine(raw string) error {
	line := strings.TrimRight(raw, "\r\n")
	line = strings.TrimSpace(stripComment(line))
	if line == "" {
		return nil
	}

	if m := reInclude.FindStringSubmatch(line); m != nil {
		return a.handleInclude(m[1])
	}
	if m := reDataLine.FindStringSubmatch(line); m != nil {
		return a.handleData(m[1], m[2], m[3])
	}
	if m := reSection.FindStringSubmatch(line); m != nil {
		return a.handleSection(m[1])
	}
	if m := reLabelDef.FindStringSubmatch(line); m != nil {
		return a.handleLabelDef(m[1])
	}
	return a.handleInstruction(line)
}

func (a *Assembler) handleInclude(path string) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(a.pos.File), path)
	}
	return a.assembleFile(path)
}

func (a *Assembler) handleSection(name string) error {
	s, ok := parseSectionName(name)
	if !ok {
		return newError(a.pos, "Invalid section: "+name)
	}
	a.section = s
	if s.isKernel() {
		a.kernelTouched = true
	}
	return nil
}

func (a *Assembler) handleLabelDef(name string) error {
	switch {
	case a.section.isText():
		return a.seg().defineLabel(name, true, a.pos)
	case a.section.isData():
		return a.seg().defineLabel(name, false, a.pos)
	default:
		return newError(a.pos, "Label definition outside of any section: "+name)
	}
}

func (a *Assembler) handleData(datatype, name, literal string) error {
	if !a.section.isData() {
		return newError(a.pos, "Data directive outside of a data section: "+datatype)
	}
	s := a.seg()
	if err := s.defineLabel(name, false, a.pos); err != nil {
		return err
	}
	if err := emitData(&s.data, datatype, literal); err != nil {
		return newError(a.pos, err.Error())
	}
	return nil
}

func (a *Assembler) handleInstruction(line string) error {
	if !a.section.isText() {
		return newError(a.pos, "Instruction outside of a text section: "+line)
	}

	fields := strings.SplitN(line, " ", 2)
	mnemonic := fields[0]
	var partsRaw string
	if len(fields) == 2 {
		partsRaw = strings.TrimSpace(fields[1])
	}

	var operands []Operand
	if partsRaw != "" {
		toks := strings.Split(partsRaw, ",")
		operands = make([]Operand, 0, len(toks))
		for _, t := range toks {
			t = strings.TrimSpace(t)
			if t == "" {
				return newError(a.pos, "Syntax error: empty operand in "+line)
			}
			op, err := classifyOperand(t)
			if err != nil {
				return newError(a.pos, err.Error())
			}
			operands = append(operands, op)
		}
	}

	if err := a.encodeInstruction(mnemonic, operands); err != nil {
		if ae, ok := err.(*Error); ok {
			return ae
		}
		return newError(a.pos, err.Error())
	}
	return nil
}
