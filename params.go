package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/Atractapp/legito-api-testing-sub002/framework"
)

type commandParams struct {
	configPath   string
	baseURL      string
	selfTest     bool
	filters      framework.RegexFilters
	debug        bool
	debugAll     bool
	loadUsers    int
	loadDuration time.Duration
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.configPath, "config", "", "path to the YAML configuration file")
	fs.StringVar(&c.baseURL, "url", "", "target API base URL (overrides the config file)")
	fs.BoolVar(&c.selfTest, "selftest", false, "run against a built-in stub API instead of a real workspace")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.IntVar(&c.loadUsers, "load-users", 0, "number of virtual users for the load phase (0 disables it)")
	fs.DurationVar(&c.loadDuration, "load-duration", time.Minute, "wall-clock duration of the load phase")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.configPath == "" && !c.selfTest {
		fmt.Fprintln(os.Stderr, "either -config or -selftest is required")
		fs.Usage()
		return false
	}
	return true
}

// rerunCommand builds a shell command that reruns exactly the tests that
// failed, so a long run does not have to be repeated to chase one failure.
func (c *commandParams) rerunCommand(failures []framework.TestResult) string {
	var b commandBuilder
	b.add(os.Args[0])
	if c.configPath != "" {
		b.add("-config", c.configPath)
	}
	if c.selfTest {
		b.add("-selftest")
	}
	if c.baseURL != "" {
		b.add("-url", c.baseURL)
	}
	b.add("-debug")
	for _, f := range failures {
		b.add("-run", "^"+f.TestID.String()+"$")
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
