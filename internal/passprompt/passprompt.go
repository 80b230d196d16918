// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package passprompt reads a passphrase from the terminal without echoing it.
package passprompt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

var (
	ErrEmpty    = errors.New("empty passphrase")
	ErrMismatch = errors.New("passphrases do not match")
)

// Read prints prompt on stderr and reads one line from stdin.
// Echo is turned off while reading if stdin is a terminal. Otherwise one
// line is read and nothing after it is consumed.
func Read(prompt string) ([]byte, error) {
	return readFrom(os.Stdin, os.Stderr, prompt)
}

// ReadNew asks twice and insists on the same answer.
func ReadNew(prompt string) ([]byte, error) {
	first, err := Read(prompt)
	if err != nil {
		return nil, err
	}
	second, err := Read("Again: ")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(first, second) {
		return nil, ErrMismatch
	}
	return first, nil
}

func readFrom(in *os.File, out io.Writer, prompt string) ([]byte, error) {
	fmt.Fprint(out, prompt)

	var line []byte
	var err error
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		line, err = term.ReadPassword(fd)
		fmt.Fprintln(out) // the user's newline was not echoed
	} else {
		line, err = readLine(in)
	}
	if err != nil {
		return nil, err
	}
	if len(line) == 0 {
		return nil, ErrEmpty
	}
	return line, nil
}

// readLine reads up to a newline one byte at a time, so that nothing past the
// line is consumed from a shared stdin.
func readLine(r io.Reader) ([]byte, error) {
	var line []byte
	var c [1]byte
	for {
		n, err := r.Read(c[:])
		if n == 1 {
			if c[0] == '\n' {
				break
			}
			line = append(line, c[0])
		}
		if err == io.EOF {
			if len(line) == 0 {
				return nil, io.ErrUnexpectedEOF
			}
			break
		} else if err != nil {
			return nil, err
		}
	}
	return bytes.TrimSuffix(line, []byte("\r")), nil
}
