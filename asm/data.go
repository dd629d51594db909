// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

package asm

import (
	"regexp"
	"strconv"
)

var (
	reUnsignedLit = regexp.MustCompile(`^(0x[0-9a-fA-F]+|[0-9]+)$`)
	reSignedLit   = regexp.MustCompile(`^([+-])(0x[0-9a-fA-F]+|[0-9]+)$`)
	reQuoted      = regexp.MustCompile(`^"(.*)"$`)
)

var dataEscapes = map[byte]byte{
	'\\': '\\',
	'"':  '"',
	'\'': '\'',
	't':  '\t',
	'n':  '\n',
	'r':  '\r',
	'0':  0,
}

func parseUnsignedLit(lit string) (uint64, error) {
	m := reUnsignedLit.FindString(lit)
	if m == "" {
		return 0, errf("cannot parse literal: %s", lit)
	}
	if len(m) > 2 && m[0:2] == "0x" {
		return strconv.ParseUint(m[2:], 16, 64)
	}
	return strconv.ParseUint(m, 10, 64)
}

func parseSignedLit(lit string) (int64, error) {
	m := reSignedLit.FindStringSubmatch(lit)
	if m == nil {
		return 0, errf("cannot parse signed literal (leading +/- required): %s", lit)
	}
	digits := m[2]
	var v int64
	var err error
	if len(digits) > 2 && digits[0:2] == "0x" {
		var u uint64
		u, err = strconv.ParseUint(digits[2:], 16, 64)
		v = int64(u)
	} else {
		v, err = strconv.ParseInt(digits, 10, 64)
	}
	if err != nil {
		return 0, errf("cannot parse signed literal: %s", lit)
	}
	if m[1] == "-" {
		v = -v
	}
	return v, nil
}

// unescapeString decodes a quoted string body, honoring \\ \" \' \t \n \r \0
// (§6.3).
func unescapeString(body string) ([]byte, error) {
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i+1 >= len(body) {
			return nil, errf("unterminated escape sequence in string")
		}
		rep, ok := dataEscapes[body[i+1]]
		if !ok {
			return nil, errf("unknown escape sequence: \\%c", body[i+1])
		}
		out = append(out, rep)
		i++
	}
	return out, nil
}

// emitData appends the bytes named by a data directive (§6.3) to *buf.
func emitData(buf *[]byte, datatype, literal string) error {
	switch datatype {
	case "u8", "u16", "u32":
		v, err := parseUnsignedLit(literal)
		if err != nil {
			return err
		}
		bits, _ := strconv.Atoi(datatype[1:])
		return appendUnsigned(buf, v, bits)
	case "s8", "s16", "s32":
		v, err := parseSignedLit(literal)
		if err != nil {
			return err
		}
		bits, _ := strconv.Atoi(datatype[1:])
		return appendSigned(buf, v, bits)
	case "str", "strz":
		m := reQuoted.FindStringSubmatch(literal)
		if m == nil {
			return errf("expected a quoted string literal: %s", literal)
		}
		bs, err := unescapeString(m[1])
		if err != nil {
			return err
		}
		*buf = append(*buf, bs...)
		if datatype == "strz" {
			*buf = append(*buf, 0)
		}
		return nil
	case "space":
		n, err := parseUnsignedLit(literal)
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			*buf = append(*buf, 0)
		}
		return nil
	default:
		return errf("unknown data directive: %s", datatype)
	}
}
