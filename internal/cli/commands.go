package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/chzyer/readline"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/dynreg/internal/commands"
	"github.com/arthur-debert/dynreg/internal/version"
	"github.com/arthur-debert/dynreg/pkg/codec"
	"github.com/arthur-debert/dynreg/pkg/config"
	"github.com/arthur-debert/dynreg/pkg/directory"
	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/host"
	"github.com/arthur-debert/dynreg/pkg/logging"
	"github.com/arthur-debert/dynreg/pkg/style"
)

// app carries what the persistent pre-run prepares for subcommands
type app struct {
	dir        *directory.Directory
	verbosity  int
	configPath string
	format     string

	cfg  *config.Config
	host *host.Host
}

// NewRootCmd creates the root command over the process-wide directory
func NewRootCmd() *cobra.Command {
	return newRootCmd(directory.Global)
}

func newRootCmd(dir *directory.Directory) *cobra.Command {
	a := &app{dir: dir}

	rootCmd := &cobra.Command{
		Use:   "dynreg",
		Short: commands.MsgRootShort,
		Long:  commands.MsgRootLong,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.host != nil {
				a.host.Close()
			}
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", commands.MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", commands.MsgFlagConfig)
	rootCmd.PersistentFlags().StringVarP(&a.format, "format", "f", "", commands.MsgFlagFormat)

	rootCmd.AddCommand(
		newVersionCmd(),
		a.newRunCmd(),
		a.newExecCmd(),
		a.newShellCmd(),
		a.newTypesCmd(),
		a.newDescribeCmd(),
		a.newConfigCmd(),
	)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf(commands.MsgErrLoadConfig, err)
	}
	a.cfg = cfg

	logging.SetupLogger(max(a.verbosity, cfg.Log.Verbosity), cfg.Log.File)
	logger := logging.GetLogger("cli")
	if cfg.Source != "" {
		logger.Debug().Str("path", cfg.Source).Msg("Loaded user config")
	}

	for _, id := range cfg.Directory.Registries {
		if _, err := a.dir.Ensure(id); err != nil {
			return err
		}
	}

	name := cfg.Output.Format
	if a.format != "" {
		name = a.format
	}
	format, err := codec.ParseFormat(name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	a.host = host.New(a.dir,
		host.WithOutput(out),
		host.WithPalette(style.ForWriter(out)),
		host.WithFormat(format),
	)
	logger.Debug().
		Str("command", cmd.Name()).
		Str("format", string(format)).
		Int("caches", len(a.dir.IDs())).
		Msg("Host ready")
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: commands.MsgVersionShort,
		Long:  commands.MsgVersionLong,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, commands.MsgVersionFormat, version.Version)
			if version.Commit != "unknown" {
				fmt.Fprintf(out, commands.MsgCommitFormat, version.Commit)
			}
			if version.Date != "unknown" {
				fmt.Fprintf(out, commands.MsgBuiltFormat, version.Date)
			}
		},
	}
}

func (a *app) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [FILE...]",
		Short: commands.MsgRunShort,
		Long:  commands.MsgRunLong,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			var first error
			for _, path := range args {
				if err := a.runScript(cmd, path); err != nil && first == nil {
					first = err
				}
			}
			return first
		},
	}
}

func (a *app) runScript(cmd *cobra.Command, path string) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf(commands.MsgErrOpenScript, path, err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	logger := logging.GetLogger("cli")
	logger.Info().Str("script", path).Msg("Running script")
	return a.host.Run(r)
}

func (a *app) newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "exec LINE...",
		Short:   commands.MsgExecShort,
		Example: commands.MsgExecExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, line := range args {
				if err := a.host.Exec(line); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (a *app) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: commands.MsgShellShort,
		Long:  commands.MsgShellLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell(cmd)
		},
	}
}

func (a *app) historyFile() string {
	if a.cfg.Shell.HistoryFile != "" {
		return a.cfg.Shell.HistoryFile
	}
	path, err := xdg.StateFile("dynreg/history")
	if err != nil {
		return ""
	}
	return path
}

func (a *app) shell(cmd *cobra.Command) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          a.cfg.Shell.Prompt,
		HistoryFile:     a.historyFile(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          cmd.OutOrStdout(),
	})
	if err != nil {
		return fmt.Errorf(commands.MsgErrShell, err)
	}
	defer func() { _ = rl.Close() }()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrInternal, "failed to read line")
		}

		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return nil
		}
		if err := a.host.Exec(line); err != nil {
			a.host.Fail(err)
		}
	}
}

func (a *app) newTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: commands.MsgTypesShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.host.Exec("types")
		},
	}
}

func (a *app) newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe TYPE",
		Short: commands.MsgDescribeShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.host.Exec("describe '" + args[0] + "'")
		},
	}
}

func (a *app) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: commands.MsgConfigShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if a.cfg.Source != "" {
				fmt.Fprintf(out, commands.MsgConfigSource, a.cfg.Source)
			} else {
				fmt.Fprint(out, commands.MsgConfigDefault)
			}
			return toml.NewEncoder(out).Encode(a.cfg)
		},
	}
}
