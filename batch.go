// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
	"golang.org/x/sync/errgroup"

	"github.com/elliotnunn/huffpack/internal/hpfile"
	"github.com/elliotnunn/huffpack/internal/progress"
)

const suffix = ".hp"

var barInterval = 200 * time.Millisecond

var errVerify = errors.New("round trip verification failed")

type mode int

const (
	modePack mode = iota
	modeUnpack
	modeTest
)

type batch struct {
	mode   mode
	outDir string
	force  bool
	expand bool
	verify bool
	jobs   int

	// passphrase is called at most once, and only if a passphrase is needed
	passphrase func() ([]byte, error)

	bar    *progress.Bar // nil for quiet
	report io.Writer     // test mode results
	cache  *payloadCache // nil to disable

	reused atomic.Int64
}

// execute asks for any passphrase that will be needed, then runs the batch
// under the progress bar.
func (b *batch) execute(ctx context.Context, names []string) error {
	if err := b.askFirst(names); err != nil {
		return err
	}
	if b.bar != nil {
		b.bar.Start(barInterval)
	}
	err := b.run(ctx, names)
	if b.bar != nil {
		elapsed := b.bar.Stop()
		slog.Debug("runDone", "elapsed", elapsed, "reused", b.reused.Load())
	}
	return err
}

// askFirst settles the passphrase before the bar starts drawing over the
// prompt. Packing always needs it if one is wanted at all; unpacking only if
// some input is sealed.
func (b *batch) askFirst(names []string) error {
	if b.passphrase == nil {
		return nil
	}
	need := b.mode == modePack
	for _, name := range names {
		if need {
			break
		}
		need = sealedOnDisk(name)
	}
	if !need {
		return nil
	}
	_, err := b.passphrase()
	return err
}

// sealedOnDisk looks at the marker byte only. Unreadable files are left for
// the worker to report.
func sealedOnDisk(name string) bool {
	f, err := os.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()
	var marker [1]byte
	if _, err := io.ReadFull(f, marker[:]); err != nil {
		return false
	}
	sealed, _ := hpfile.IsSealed(marker[:])
	return sealed
}

// run processes every file, several at a time, and returns all the failures.
func (b *batch) run(ctx context.Context, names []string) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	g := new(errgroup.Group)
	g.SetLimit(max(b.jobs, 1))
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			switch b.mode {
			case modePack:
				err = b.pack(ctx, name)
			default:
				err = b.unpack(ctx, name)
			}
			if err != nil {
				slog.Debug("fileError", "path", name, "err", err)
				mu.Lock()
				errs = append(errs, errWithPath(err, name))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (b *batch) counter() *atomic.Int64 {
	if b.bar == nil {
		return nil
	}
	return b.bar.Counter()
}

func (b *batch) grow(n int) {
	if b.bar != nil {
		b.bar.AddTotal(int64(n))
	}
}

func (b *batch) pack(ctx context.Context, name string) error {
	src, inner, err := loadInput(name, b.expand)
	if err != nil {
		return err
	}
	b.grow(len(src))
	slog.Debug("packStart", "path", name, "size", len(src))

	var pass []byte
	if b.passphrase != nil {
		if pass, err = b.passphrase(); err != nil {
			return err
		}
	}

	key := payloadKey{sum: xxhash.Sum64(src), n: len(src)}
	payload, ok := b.cache.get(key)
	if ok {
		b.reused.Add(1)
		if c := b.counter(); c != nil {
			c.Add(int64(len(src)))
		}
		slog.Info("duplicateInput", "path", name, "xxhash", fmt.Sprintf("%016x", key.sum))
	} else {
		payload, err = hpfile.Compress(ctx, src, b.counter())
		if err != nil {
			return err
		}
		b.cache.add(key, payload)
	}

	file, err := hpfile.Frame(payload, len(src), pass)
	if err != nil {
		return err
	}

	if b.verify {
		back, err := hpfile.Unpack(ctx, file, pass, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", errVerify, err)
		}
		if len(back) != len(src) || xxhash.Sum64(back) != key.sum {
			return errVerify
		}
	}

	out := b.outName(inner + suffix)
	slog.Debug("packDone", "path", name, "out", out, "size", len(file))
	return writeOutput(out, file, b.force, permOf(name))
}

func (b *batch) unpack(ctx context.Context, name string) error {
	file, err := os.ReadFile(name)
	if err != nil {
		return err
	}

	var pass []byte
	if sealed, err := hpfile.IsSealed(file); err != nil {
		return err
	} else if sealed {
		if b.passphrase == nil {
			return hpfile.ErrPassword
		}
		if pass, err = b.passphrase(); err != nil {
			return err
		}
	}

	h, err := hpfile.ReadHeader(file, pass)
	if err != nil {
		return err
	}
	if h.Length > maxInput {
		return errTooBig
	}
	b.grow(h.Length)

	data, err := hpfile.Unpack(ctx, file, pass, b.counter())
	if err != nil {
		return err
	}

	if b.mode == modeTest {
		fmt.Fprintf(b.report, "%s: ok, %d bytes, xxhash %016x\n", name, len(data), xxhash.Sum64(data))
		return nil
	}

	out, ok := strings.CutSuffix(name, suffix)
	if !ok || filepath.Base(name) == suffix {
		out = name + ".out"
	}
	return writeOutput(b.outName(out), data, b.force, permOf(name))
}

func (b *batch) outName(name string) string {
	if b.outDir == "" {
		return name
	}
	return filepath.Join(b.outDir, filepath.Base(name))
}

// permOf is the permission an output inherits from its input.
func permOf(name string) fs.FileMode {
	if fi, err := os.Stat(name); err == nil {
		return fi.Mode().Perm()
	}
	return 0o644
}

// writeOutput replaces the file only once the whole of it is on disk,
// so a failure never leaves a partial output behind.
func writeOutput(name string, data []byte, force bool, perm fs.FileMode) error {
	if !force {
		if _, err := os.Lstat(name); err == nil {
			return &fs.PathError{Op: "create", Path: name, Err: fs.ErrExist}
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	_, err = tmp.Write(data)
	err = errors.Join(err, tmp.Chmod(perm), tmp.Close())
	if err == nil {
		err = os.Rename(tmp.Name(), name)
	}
	if err != nil {
		os.Remove(tmp.Name())
	}
	return err
}

func errWithPath(err error, path string) error {
	var perr *fs.PathError
	if errors.As(err, &perr) {
		return err
	}
	return fmt.Errorf("%s: %w", path, err)
}

// expandPatterns turns command-line arguments into file names.
// Arguments without glob syntax pass through untouched, so that a missing
// file is reported when it is opened.
func expandPatterns(patterns []string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		if !strings.ContainsAny(p, "*?[{") {
			if !seen[p] {
				seen[p] = true
				names = append(names, p)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", p)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				names = append(names, m)
			}
		}
	}
	return names, nil
}

// payloadCache lets identical inputs in one run share a compressed payload.
type payloadCache struct {
	mu sync.Mutex
	c  *tinylfu.T[payloadKey, []byte]
}

type payloadKey struct {
	sum uint64 // xxhash of the input
	n   int
}

func newPayloadCache(slots int) *payloadCache {
	if slots <= 0 {
		return nil
	}
	return &payloadCache{c: tinylfu.New[payloadKey, []byte](slots, slots*10, payloadHash)}
}

func payloadHash(k payloadKey) uint64 { return k.sum ^ uint64(k.n) }

func (pc *payloadCache) get(k payloadKey) ([]byte, bool) {
	if pc == nil {
		return nil, false
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.c.Get(k)
}

func (pc *payloadCache) add(k payloadKey, payload []byte) {
	if pc == nil {
		return
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.c.Add(k, payload)
}
