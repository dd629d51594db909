// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

// Package asmimg reads and writes the on-disk TPU image container: an
// 8-byte header giving the length of each of the kernel and user halves,
// followed by the four segment buffers back to back (§4.4, §6.6).
package asmimg

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/travis-heavener/tpu3/internal/ngi"
)

// Image holds the four segment buffers produced by an assembly run.
type Image struct {
	KernelText []byte
	KernelData []byte
	UserText   []byte
	UserData   []byte
}

// KernelLen returns the combined size of the kernel text and data segments.
func (im Image) KernelLen() int { return len(im.KernelText) + len(im.KernelData) }

// UserLen returns the combined size of the user text and data segments.
func (im Image) UserLen() int { return len(im.UserText) + len(im.UserData) }

// WriteTo writes im's header and segments to w, in kernel-text,
// kernel-data, user-text, user-data order (§6.6).
func (im Image) WriteTo(w io.Writer) (int64, error) {
	ew := ngi.NewErrWriter(w)
	ew.WriteUint32LE(uint32(im.KernelLen()))
	ew.WriteUint32LE(uint32(im.UserLen()))
	ew.Write(im.KernelText)
	ew.Write(im.KernelData)
	ew.Write(im.UserText)
	ew.Write(im.UserData)
	if ew.Err != nil {
		return 0, errors.Wrap(ew.Err, "writing image")
	}
	return int64(8 + im.KernelLen() + im.UserLen()), nil
}

// Decoded is the raw kernel and user byte streams read back from an image
// file; ReadImage does not split a half back into text/data, since the
// boundary between them is not recorded in the container (§6.6).
type Decoded struct {
	Kernel []byte
	User   []byte
}

// ReadImage reads an image container previously written by Image.WriteTo.
func ReadImage(r io.Reader) (Decoded, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Decoded{}, errors.Wrap(err, "reading image header")
	}
	kernelLen := binary.LittleEndian.Uint32(header[0:4])
	userLen := binary.LittleEndian.Uint32(header[4:8])

	kernel := make([]byte, kernelLen)
	if _, err := io.ReadFull(r, kernel); err != nil {
		return Decoded{}, errors.Wrap(err, "reading kernel segment")
	}
	user := make([]byte, userLen)
	if _, err := io.ReadFull(r, user); err != nil {
		return Decoded{}, errors.Wrap(err, "reading user segment")
	}
	return Decoded{Kernel: kernel, User: user}, nil
}
