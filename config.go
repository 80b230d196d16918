// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package main

import (
	"math"
	"os"
	"runtime"
	"strconv"
)

var (
	maxInput    int = calcMaxInput()
	defaultJobs int = envInt("HPJOBS", runtime.NumCPU())
	cacheSlots  int = envInt("HPCACHE", 64)
)

const passphraseEnv = "HUFFPACK_PASSPHRASE"

// The length field in the file format is 32 bits.
const hardMaxInput = math.MaxUint32

func calcMaxInput() int {
	if e := os.Getenv("HPGB"); e != "" {
		f, err := strconv.ParseFloat(e, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			panic("malformed HPGB environment variable, should be a number of gigabytes: " + e)
		}
		return int(min(f*1024*1024*1024, hardMaxInput))
	}
	return 1024 * 1024 * 1024 // fall back on 1GiB
}

func envInt(name string, fallback int) int {
	e := os.Getenv(name)
	if e == "" {
		return fallback
	}
	n, err := strconv.Atoi(e)
	if err != nil || n < 0 {
		panic("malformed " + name + " environment variable, should be a non-negative integer: " + e)
	}
	return n
}

func envPassphrase() []byte {
	if e := os.Getenv(passphraseEnv); e != "" {
		return []byte(e)
	}
	return nil
}
