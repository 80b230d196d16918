// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/therootcompany/xz"
)

var errTooBig = errors.New("input exceeds the size limit (see HPGB)")

// loadInput reads a whole file into memory. With expand set, a gzip, bzip2 or
// xz file is decompressed on the way in, and the returned name loses its
// compression suffix.
func loadInput(name string, expand bool) ([]byte, string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, name, err
	}
	defer f.Close()

	var header []byte
	var accessError error
	matchAt := func(s string, offset int) bool {
		if len(header) < offset+len(s) && len(header) == cap(header) {
			target := (offset + len(s) + 63) &^ 63
			header = slices.Grow(header, target-len(header))
			n, err := io.ReadFull(f, header[len(header):cap(header)])
			if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF && accessError == nil {
				accessError = err
			}
			header = header[:len(header)+n]
		}
		return len(header) >= offset+len(s) && string(header[offset:][:len(s)]) == s
	}

	var r io.Reader
	dir, base := filepath.Split(name)
	switch {
	case !expand:
	case matchAt("\x1f\x8b", 0): // gzip
		zr, err := gzip.NewReader(io.MultiReader(bytes.NewReader(header), f))
		if err != nil {
			return nil, name, fmt.Errorf("%w: %s", err, name)
		}
		r, base = zr, changeSuffix(base, ".gz .gzip .tgz=.tar")
	case matchAt("BZh", 0): // bzip2
		r = bzip2.NewReader(io.MultiReader(bytes.NewReader(header), f))
		base = changeSuffix(base, ".bz .bz2 .bzip2 .tbz=.tar .tb2=.tar")
	case matchAt("\xfd7zXZ\x00", 0): // xz
		xr, err := xz.NewReader(io.MultiReader(bytes.NewReader(header), f), xz.DefaultDictMax)
		if err != nil {
			return nil, name, fmt.Errorf("%w: %s", err, name)
		}
		r, base = xr, changeSuffix(base, ".xz .txz=.tar")
	}
	if accessError != nil {
		return nil, name, accessError
	}
	if r == nil {
		r = io.MultiReader(bytes.NewReader(header), f)
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(maxInput)+1))
	if err != nil {
		return nil, name, fmt.Errorf("%w: %s", err, name)
	}
	if len(data) > maxInput {
		return nil, name, fmt.Errorf("%w: %s", errTooBig, name)
	}
	return data, dir + base, nil
}

func changeSuffix(s string, suffixes string) string {
	for _, rule := range strings.Split(suffixes, " ") {
		from, to, _ := strings.Cut(rule, "=")
		if strings.HasSuffix(s, from) && len(s) > len(from) {
			return s[:len(s)-len(from)] + to
		}
	}
	return s
}
