// Package terminal decides whether the process talks to a person at a
// terminal and whether that terminal should receive colored output.
package terminal

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ciEnvVars contains common CI environment variables
var ciEnvVars = []string{
	"CI",                     // Generic CI indicator
	"CONTINUOUS_INTEGRATION", // Generic CI indicator
	"GITHUB_ACTIONS",         // GitHub Actions
	"TRAVIS",                 // Travis CI
	"CIRCLECI",               // Circle CI
	"JENKINS_URL",            // Jenkins
	"BUILD_NUMBER",           // Jenkins/TeamCity/etc
	"GITLAB_CI",              // GitLab CI
	"BUILDKITE",              // Buildkite
	"TF_BUILD",               // Azure DevOps
}

// colorTerminals lists TERM values (or prefixes before a '-') known to
// render ANSI colors.
var colorTerminals = []string{
	"xterm", "screen", "tmux", "rxvt", "vt100", "vt220", "ansi", "linux", "cygwin", "putty",
}

// Options holds the command line overrides. Each pair is mutually exclusive;
// the Force variant wins when both are set.
type Options struct {
	ForceInteractive    bool
	ForceNonInteractive bool
	ForceColor          bool
	DisableColor        bool
}

// Capabilities reports what the attached terminal can do.
type Capabilities interface {
	IsInteractive() bool
	SupportsColor() bool
}

// Detector implements Capabilities from the environment and the standard streams.
type Detector struct {
	options    Options
	lookupEnv  func(string) (string, bool)
	isTerminal func() bool
}

// NewDetector returns a Detector reading the process environment.
func NewDetector(options Options) *Detector {
	return &Detector{
		options:   options,
		lookupEnv: os.LookupEnv,
		isTerminal: func() bool {
			return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
		},
	}
}

// IsInteractive reports whether stdout and stderr are a terminal outside CI.
func (d *Detector) IsInteractive() bool {
	if d.options.ForceInteractive {
		return true
	}
	if d.options.ForceNonInteractive {
		return false
	}
	if d.isCI() {
		return false
	}
	return d.isTerminal()
}

// SupportsColor applies, in order: command line flags, CLICOLOR_FORCE,
// NO_COLOR, interactivity, TERM and finally CLICOLOR.
func (d *Detector) SupportsColor() bool {
	if d.options.ForceColor {
		return true
	}
	if d.options.DisableColor {
		return false
	}
	if v, ok := d.lookupEnv("CLICOLOR_FORCE"); ok && isTruthy(v) {
		return true
	}
	// NO_COLOR counts even when empty.
	if _, ok := d.lookupEnv("NO_COLOR"); ok {
		return false
	}
	if !d.IsInteractive() || !d.termSupportsColor() {
		return false
	}
	if v, ok := d.lookupEnv("CLICOLOR"); ok && v != "" {
		return isTruthy(v)
	}
	return true
}

func (d *Detector) isCI() bool {
	for _, name := range ciEnvVars {
		value, ok := d.lookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if name == "CI" {
			lower := strings.ToLower(strings.TrimSpace(value))
			return lower != "false" && lower != "0" && lower != "no"
		}
		return true
	}
	return false
}

func (d *Detector) termSupportsColor() bool {
	value, _ := d.lookupEnv("TERM")
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "dumb" {
		return false
	}
	for _, name := range colorTerminals {
		if value == name || strings.HasPrefix(value, name+"-") {
			return true
		}
	}
	return false
}

// IsTerminalWriter reports whether w is an *os.File attached to a terminal.
func IsTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
