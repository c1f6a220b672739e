package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/chazu/rpeg/pkg/bytecode"
	"github.com/chazu/rpeg/vm"
)

// maxLine bounds the length of one input line.
const maxLine = 64 * 1024 * 1024

// runMatch implements `rpeg match`. Each input line is matched separately
// (the trailing newline is not part of the input) and the encoded result of
// every matching line is printed followed by a newline.
func runMatch(env *environment, args []string) error {
	var cf commonFlags
	var encoder string
	var wholeFile, stats, trace bool

	fs := newFlagSet(env, "match", "<file.rplx> [input_file]", &cf)
	fs.StringVarP(&encoder, "encoder", "e", "", "output encoding: json, byte, debug, line, cbor, status (default from config)")
	fs.BoolVar(&wholeFile, "whole-file", false, "match the entire input once instead of line by line")
	fs.BoolVar(&stats, "stats", false, "print match statistics to stderr")
	fs.BoolVar(&trace, "trace", false, "trace instruction execution to stderr")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 && fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}
	if err := cf.setup(env); err != nil {
		return err
	}

	enc := env.config.Encoding()
	if encoder != "" {
		e, err := vm.ParseEncoding(encoder)
		if err != nil {
			return err
		}
		enc = e
	}

	chunk, err := bytecode.Load(fs.Arg(0), env.config.Limits())
	if err != nil {
		return fmt.Errorf("cannot load %s: %w", fs.Arg(0), err)
	}

	in := env.stdin
	if fs.NArg() == 2 {
		f, err := os.Open(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("cannot open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	m := vm.NewVM(env.config.VMConfig())
	m.CollectTimes = stats
	if trace {
		m.Trace = true
		m.TraceOut = env.stderr
	}
	out := bufio.NewWriter(env.stdout)
	defer out.Flush()

	matchOne := func(input []byte) error {
		var result vm.Match
		if err := m.Match(chunk, input, 0, 0, enc, &result); err != nil {
			return err
		}
		if stats {
			s := result.Stats
			fmt.Fprintf(env.stderr, "  Stats:  total time %v, match time %v, insts %d, backtrack %d, caplist %d, capdepth %d\n",
				result.TotalTime, result.MatchTime, s.Instructions, s.Backtrack, s.CapList, s.CapDepth)
		}
		if !result.Matched {
			return nil
		}
		if enc == vm.EncodeStatus {
			fmt.Fprintf(out, "matched leftover=%d abend=%v\n", result.Leftover, result.Abend)
			return nil
		}
		out.Write(result.Data)
		return out.WriteByte('\n')
	}

	if wholeFile {
		data, err := io.ReadAll(in)
		if err != nil {
			return err
		}
		return matchOne(data)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	lines := 0
	for scanner.Scan() {
		lines++
		if err := matchOne(scanner.Bytes()); err != nil {
			return fmt.Errorf("line %d: %w", lines, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	log.Infof("matched %d lines against %s", lines, fs.Arg(0))
	return nil
}
