package commands

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort     = "A registry of dynamic objects addressed by name"
	MsgVersionShort  = "Print version information"
	MsgVersionLong   = "Print detailed version information including commit hash and build date"
	MsgRunShort      = "Run command scripts"
	MsgRunLong       = "Run executes every line of each script, or of standard input when no file or - is given. Failing lines are reported and the run continues."
	MsgExecShort     = "Execute command lines given as arguments"
	MsgShellShort    = "Start an interactive shell"
	MsgTypesShort    = "List constructible types"
	MsgDescribeShort = "Show the members of a type"
	MsgConfigShort   = "Print the effective configuration"

	// Version output
	MsgVersionFormat = "dynreg version %s\n"
	MsgCommitFormat  = "Commit: %s\n"
	MsgBuiltFormat   = "Built:  %s\n"

	// Config output
	MsgConfigSource  = "# loaded from %s\n"
	MsgConfigDefault = "# defaults only\n"

	// Error messages
	MsgErrLoadConfig = "failed to load configuration: %w"
	MsgErrOpenScript = "failed to open script %s: %w"
	MsgErrShell      = "failed to start shell: %w"

	// Flag descriptions
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig  = "Config file (default $XDG_CONFIG_HOME/dynreg/config.toml)"
	MsgFlagFormat  = "Output format of show and save: yaml, json, toml or xml"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/exec-example.txt
	msgExecExampleRaw string
	MsgExecExample    = strings.TrimRight(msgExecExampleRaw, "\n")

	//go:embed msgs/shell-long.txt
	msgShellLongRaw string
	MsgShellLong    = strings.TrimSpace(msgShellLongRaw)
)
