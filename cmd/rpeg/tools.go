package main

import (
	"fmt"

	"github.com/chazu/rpeg/pkg/bytecode"
)

func loadChunk(env *environment, path string) (*bytecode.Chunk, error) {
	c, err := bytecode.Load(path, env.config.Limits())
	if err != nil {
		return nil, fmt.Errorf("cannot load %s: %w", path, err)
	}
	return c, nil
}

// runDis implements `rpeg dis`.
func runDis(env *environment, args []string) error {
	var cf commonFlags
	fs := newFlagSet(env, "dis", "<file.rplx>", &cf)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	if err := cf.setup(env); err != nil {
		return err
	}

	c, err := loadChunk(env, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := c.Verify(); err != nil {
		fmt.Fprintf(env.stderr, "warning: %v\n", err)
	}
	fmt.Fprint(env.stdout, c.DisassembleWithName(fs.Arg(0)))
	return nil
}

// runCompact implements `rpeg compact`. Without -o the input file is
// rewritten in place.
func runCompact(env *environment, args []string) error {
	var cf commonFlags
	var output string
	fs := newFlagSet(env, "compact", "<file.rplx>", &cf)
	fs.StringVarP(&output, "output", "o", "", "output file (default: rewrite the input)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	if err := cf.setup(env); err != nil {
		return err
	}

	path := fs.Arg(0)
	if output == "" {
		output = path
	}
	c, err := loadChunk(env, path)
	if err != nil {
		return err
	}
	before, err := c.Fingerprint()
	if err != nil {
		return err
	}
	compacted, err := c.CompactKtable()
	if err != nil {
		return err
	}
	after, err := compacted.Fingerprint()
	if err != nil {
		return err
	}
	if before == after && output == path {
		fmt.Fprintf(env.stdout, "%s: already compact (%d entries)\n", path, c.Ktable.Len())
		return nil
	}
	if err := bytecode.Save(output, compacted, env.config.Limits()); err != nil {
		return err
	}
	fmt.Fprintf(env.stdout, "%s: ktable %d -> %d entries, wrote %s\n",
		path, c.Ktable.Len(), compacted.Ktable.Len(), output)
	return nil
}

// runInfo implements `rpeg info`.
func runInfo(env *environment, args []string) error {
	var cf commonFlags
	fs := newFlagSet(env, "info", "<file.rplx>...", &cf)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	if err := cf.setup(env); err != nil {
		return err
	}

	for _, path := range fs.Args() {
		c, err := loadChunk(env, path)
		if err != nil {
			return err
		}
		fp, err := c.Fingerprint()
		if err != nil {
			return err
		}
		status := "ok"
		if err := c.Verify(); err != nil {
			status = err.Error()
		}
		dups, _, unique := c.Ktable.Dups()
		fmt.Fprintf(env.stdout, "%s:\n", path)
		fmt.Fprintf(env.stdout, "  version:     %d\n", c.Version)
		fmt.Fprintf(env.stdout, "  code:        %d words\n", c.CodeLen())
		fmt.Fprintf(env.stdout, "  ktable:      %d entries (%d unique, %d duplicates), %d bytes\n",
			c.Ktable.Len(), unique, dups, len(c.Ktable.Block()))
		fmt.Fprintf(env.stdout, "  fingerprint: %016x\n", fp)
		fmt.Fprintf(env.stdout, "  verify:      %s\n", status)
	}
	return nil
}
