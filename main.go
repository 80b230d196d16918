// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command huffpack compresses files with a Huffman code, optionally sealing
// them with a passphrase.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/elliotnunn/huffpack/internal/passprompt"
	"github.com/elliotnunn/huffpack/internal/progress"
)

const usage = `usage: huffpack [-d|-t] [-e] [-x] [-k] [-f] [-q] [-v] [-j N] [-o DIR] PATTERN...

Packs each file into FILE.hp, or with -d unpacks FILE.hp into FILE.
Patterns may use ** to match across directories.

Environment:
  HPGB                 largest input in gigabytes (default 1)
  HPJOBS               default for -j
  HPCACHE              identical inputs remembered per run (default 64, 0 off)
  HUFFPACK_PASSPHRASE  passphrase to use instead of prompting

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fset := flag.NewFlagSet("huffpack", flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.Usage = func() {
		fmt.Fprint(stderr, usage)
		fset.PrintDefaults()
	}
	var (
		unpack  = fset.Bool("d", false, "unpack")
		test    = fset.Bool("t", false, "test: unpack in memory and print a digest")
		seal    = fset.Bool("e", false, "seal with a passphrase")
		expand  = fset.Bool("x", false, "expand gzip, bzip2 and xz inputs before packing")
		verify  = fset.Bool("k", false, "check each packed file unpacks to its input")
		force   = fset.Bool("f", false, "overwrite existing outputs")
		quiet   = fset.Bool("q", false, "no progress bar")
		verbose = fset.Bool("v", false, "debug logging")
		jobs    = fset.Int("j", defaultJobs, "files to process at once")
		outDir  = fset.String("o", "", "write outputs into `DIR`")
	)
	if err := fset.Parse(args); err != nil {
		return 2
	}
	if fset.NArg() == 0 || (*unpack && *test) || (*seal && (*unpack || *test)) {
		fset.Usage()
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	names, err := expandPatterns(fset.Args())
	if err != nil {
		fmt.Fprintln(stderr, "huffpack:", err)
		return 1
	}

	b := &batch{
		mode:   modePack,
		outDir: *outDir,
		force:  *force,
		expand: *expand,
		verify: *verify,
		jobs:   max(*jobs, 1),
		report: os.Stdout,
		cache:  newPayloadCache(cacheSlots),
	}
	switch {
	case *unpack:
		b.mode = modeUnpack
	case *test:
		b.mode = modeTest
	}

	if *seal || b.mode != modePack {
		b.passphrase = passphraseSource(*seal)
	}

	if !*quiet && b.mode != modeTest {
		label := "packing"
		if b.mode == modeUnpack {
			label = "unpacking"
		}
		b.bar = progress.New(stderr, label)
	}

	slog.Debug("runStart", "files", len(names), "jobs", b.jobs, "maxInput", maxInput)
	err = b.execute(ctx, names)
	if err != nil {
		for _, e := range unjoin(err) {
			fmt.Fprintln(stderr, "huffpack:", e)
		}
		return 1
	}
	return 0
}

// passphraseSource returns a function that finds the passphrase the first time
// it is needed and gives the same answer thereafter.
func passphraseSource(confirm bool) func() ([]byte, error) {
	return sync.OnceValues(func() ([]byte, error) {
		if p := envPassphrase(); p != nil {
			return p, nil
		}
		if confirm {
			return passprompt.ReadNew("Passphrase: ")
		}
		return passprompt.Read("Passphrase: ")
	})
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
