// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for chatterm.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdAsk
	CmdConfig
	CmdHistory
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	Model   string

	// Command-specific
	Query      string
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw args remaining after command extraction
	Raw []string
}

const usageText = `chatterm - terminal client for the chat completion backend

Usage:
  chatterm                    Start the TUI (default)
  chatterm login              Sign in and store the session token
  chatterm logout             Clear the stored session token
  chatterm whoami             Show session status
  chatterm ask [question]     One-shot question, or a REPL with no question
  chatterm config [show|get|set|path]  Configuration
  chatterm history [recent|stats|clear] Request history
  chatterm version            Show version
  chatterm help               Show this help

Config Commands:
  chatterm config show              Show current configuration
  chatterm config get <key>         Get a value (dotted key, e.g. chat.model)
  chatterm config set <key> <value> Set a value
  chatterm config path              Print the config file path

History Commands:
  chatterm history                  Show recent requests (default: 20)
    --limit N                       Show last N requests
  chatterm history stats            Show request statistics
  chatterm history clear --confirm  Clear request history

Global Flags:
  -q, --quiet     Minimal output
  -v, --verbose   Debug output
  --json          Output in JSON format where supported
  --model NAME    Override the configured completion model

Examples:
  chatterm                            Start the TUI
  chatterm ask "What is Go?"          Ask a single question
  chatterm ask                        Interactive question loop
  chatterm ask --model gpt-4 "hi"     Ask with a specific model
  chatterm config set chat.max_turns 15
  chatterm history --limit 50

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("chatterm version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	return ParseFrom(os.Args[1:])
}

// ParseFrom parses the given arguments. Split out of Parse for testing.
func ParseFrom(argv []string) (Command, Args) {
	remaining, parsed := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "login":
		return CmdLogin, parsed

	case "logout":
		return CmdLogout, parsed

	case "whoami", "status":
		return CmdWhoami, parsed

	case "ask":
		parseAskArgs(&parsed, remaining)
		return CmdAsk, parsed

	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "history":
		if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
			parsed.Subcommand = remaining[0]
		}
		return CmdHistory, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		// Unknown command: treat the whole line as an ask question.
		parsed.Raw = append([]string{cmd}, remaining...)
		parseAskArgs(&parsed, parsed.Raw)
		return CmdAsk, parsed
	}
}

// parseGlobalFlags extracts global flags from args and returns the rest.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsed Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsed.Model = args[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsed
}

// parseAskArgs joins the non-flag arguments into the question.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch {
		case arg == "-m" || arg == "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case strings.HasPrefix(arg, "--model="):
			args.Model = strings.TrimPrefix(arg, "--model=")
		case !strings.HasPrefix(arg, "-"):
			query = append(query, arg)
		}
	}

	args.Query = strings.Join(query, " ")
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
		if len(remaining) > 1 {
			args.ConfigKey = remaining[1]
		}
		if len(remaining) > 2 {
			args.ConfigVal = remaining[2]
		}
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes a parsed non-TUI command and returns its exit code. CmdTUI
// is handled by the caller, which owns the bubbletea program.
func Run(cmd Command, args Args) int {
	var err error

	switch cmd {
	case CmdLogin:
		err = HandleLogin(args)
	case CmdLogout:
		err = HandleLogout(args)
	case CmdWhoami:
		err = HandleWhoami(args)
	case CmdAsk:
		err = HandleAsk(args)
	case CmdConfig:
		err = HandleConfig(args)
	case CmdHistory:
		err = HandleHistory(args)
	case CmdVersion:
		PrintVersion()
		return ExitSuccess
	case CmdHelp:
		PrintUsage()
		return ExitSuccess
	default:
		PrintUsage()
		return ExitUsageError
	}

	if err != nil {
		DisplayError(err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
