// This file is part of tpu3 - https://github.com/travis-heavener/tpu3

// Command tasm assembles a TPU assembly source file into a binary image.
//
// Usage: tasm <input.tsm> <output.tpu>
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/travis-heavener/tpu3/asm"
)

var verbose bool

func init() {
	flag.BoolVar(&verbose, "v", false, "print a per-segment size summary on success")
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: tasm <input.tsm> <output.tpu>")
	flag.PrintDefaults()
}

func atExit(err error) {
	if err == nil {
		return
	}
	if ae, ok := err.(*asm.Error); ok {
		fmt.Fprintln(os.Stderr, ae.Error())
		os.Exit(1)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	os.Exit(1)
}

func run() error {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		usage()
		os.Exit(1)
	}
	inPath, outPath := args[0], args[1]

	if !strings.HasSuffix(strings.ToLower(inPath), ".tsm") {
		return errors.Errorf("input file must end in .tsm: %s", inPath)
	}
	if !strings.HasSuffix(strings.ToLower(outPath), ".tpu") {
		return errors.Errorf("output file must end in .tpu: %s", outPath)
	}

	img, err := asm.Assemble(inPath)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer f.Close()

	n, err := img.WriteTo(f)
	if err != nil {
		return errors.Wrap(err, "writing output file")
	}

	if verbose {
		fmt.Printf("kernel: %d bytes, user: %d bytes, total: %d bytes\n",
			img.KernelLen(), img.UserLen(), n)
	}
	return nil
}

func main() {
	atExit(run())
}
