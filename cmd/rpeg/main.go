// rpeg CLI - runs and inspects compiled matching programs (.rplx files)
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/rpeg/config"
	"github.com/spf13/pflag"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("rpeg.cli")

// errUsage reports a command line that could not be parsed. The message has
// already been printed.
var errUsage = errors.New("usage error")

type command struct {
	name    string
	summary string
	run     func(env *environment, args []string) error
}

var commands = []command{
	{"match", "match each line of the input and print the encoded captures", runMatch},
	{"dis", "disassemble a compiled program", runDis},
	{"compact", "rewrite a compiled program with a compacted ktable", runCompact},
	{"info", "print program sizes and fingerprint", runInfo},
}

// environment carries the streams and configuration shared by commands.
type environment struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	config *config.Config
}

func main() {
	env := &environment{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(env, os.Args[1:]); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: rpeg <command> [options] <file.rplx> [args...]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  rpeg match net.rplx input.txt       # JSON per matching line\n")
	fmt.Fprintf(w, "  rpeg match -e line net.rplx < log   # grep-style output\n")
	fmt.Fprintf(w, "  rpeg dis net.rplx                   # disassemble\n")
	fmt.Fprintf(w, "  rpeg compact net.rplx -o small.rplx\n")
}

func run(env *environment, args []string) error {
	if len(args) == 0 {
		usage(env.stderr)
		return errUsage
	}
	name := args[0]
	if name == "-h" || name == "--help" || name == "help" {
		usage(env.stdout)
		return nil
	}
	for _, c := range commands {
		if c.name == name {
			return c.run(env, args[1:])
		}
	}
	fmt.Fprintf(env.stderr, "unknown command %q\n\n", name)
	usage(env.stderr)
	return errUsage
}

// commonFlags are accepted by every command.
type commonFlags struct {
	verbose    int
	logFile    string
	configPath string
}

func newFlagSet(env *environment, name, args string, cf *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet("rpeg "+name, pflag.ContinueOnError)
	fs.SetOutput(env.stderr)
	fs.CountVarP(&cf.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	fs.StringVar(&cf.logFile, "log-file", "", "write log output to this file")
	fs.StringVarP(&cf.configPath, "config", "c", "", "configuration file (default: rpeg.toml found from the current directory)")
	fs.Usage = func() {
		fmt.Fprintf(env.stderr, "Usage: rpeg %s [options] %s\n\nOptions:\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// setup loads the configuration and configures logging. Flags override
// the configuration file.
func (cf *commonFlags) setup(env *environment) error {
	var cfg *config.Config
	var err error
	if cf.configPath != "" {
		cfg, err = config.LoadFile(cf.configPath)
	} else {
		cfg, err = config.FindAndLoad(".")
	}
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	env.config = cfg

	verbosity := cfg.Log.Verbosity
	if cf.verbose > 0 {
		verbosity = cf.verbose
	}
	logFile := cfg.Log.File
	if cf.logFile != "" {
		logFile = cf.logFile
	}
	if logFile != "" {
		commonlog.Configure(verbosity, &logFile)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	if cfg.Path != "" {
		log.Debugf("using configuration %s", cfg.Path)
	}
	return nil
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return errUsage
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}
