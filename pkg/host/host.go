// Package host is a line-oriented command interpreter over a Directory.
//
// Every command addresses caches by id and objects by key, and passes only
// strings: literals are typed with codec.ParseScalar unless quoted, or
// unless the destination property or parameter is a string. This is the
// surface the dynreg CLI exposes through "exec" and "shell".
package host

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/arthur-debert/dynreg/pkg/cache"
	"github.com/arthur-debert/dynreg/pkg/codec"
	"github.com/arthur-debert/dynreg/pkg/directory"
	"github.com/arthur-debert/dynreg/pkg/errors"
	"github.com/arthur-debert/dynreg/pkg/logging"
	"github.com/arthur-debert/dynreg/pkg/notify"
	"github.com/arthur-debert/dynreg/pkg/registry"
	"github.com/arthur-debert/dynreg/pkg/schema"
	"github.com/arthur-debert/dynreg/pkg/style"
)

// Host executes commands against one directory
type Host struct {
	dir      *directory.Directory
	out      io.Writer
	palette  style.Palette
	format   codec.Format
	current  string
	watches  map[string]notify.Subscription
	commands registry.Registry[*command]
}

// Option configures a Host
type Option func(*Host)

// WithOutput sets where command output goes (default os.Stdout)
func WithOutput(w io.Writer) Option {
	return func(h *Host) { h.out = w }
}

// WithPalette sets the output palette (default plain)
func WithPalette(p style.Palette) Option {
	return func(h *Host) { h.palette = p }
}

// WithFormat sets the default format of show and save (default yaml)
func WithFormat(f codec.Format) Option {
	return func(h *Host) { h.format = f }
}

// New creates a host over dir, starting in the default cache
func New(dir *directory.Directory, opts ...Option) *Host {
	h := &Host{
		dir:     dir,
		out:     os.Stdout,
		palette: style.Plain(),
		format:  codec.YAML,
		current: directory.DefaultID,
		watches: make(map[string]notify.Subscription),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.commands = commandTable()
	return h
}

// Current returns the id of the cache commands address
func (h *Host) Current() string { return h.current }

func (h *Host) cache() (*cache.Cache, error) {
	return h.dir.Resolve(h.current)
}

// Exec runs one command line. Blank lines and comments do nothing.
func (h *Host) Exec(line string) error {
	tokens, err := Tokenize(line)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	name := tokens[0].Text
	cmd, ok := h.commands.Lookup(schema.Fold(name))
	if !ok {
		return errors.Newf(errors.ErrCommandUnknown, "unknown command %q (try help)", name).
			WithDetail("command", name)
	}
	args := tokens[1:]
	if len(args) < cmd.min || (cmd.max >= 0 && len(args) > cmd.max) {
		return errors.Newf(errors.ErrCommandParse, "usage: %s", cmd.usage).
			WithDetail("command", cmd.name)
	}

	logger := logging.GetLogger("host")
	logger.Debug().Str("command", cmd.name).Int("args", len(args)).Msg("Executing command")
	return cmd.run(h, args)
}

// Run executes every line of r. A failing line is reported on the output
// and execution continues; the first failure is returned at the end.
func (h *Host) Run(r io.Reader) error {
	var first error
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := h.Exec(scanner.Text()); err != nil {
			h.Fail(err)
			if first == nil {
				first = errors.Wrapf(err, errors.GetErrorCode(err), "line %d", lineNo).
					WithDetail("line", lineNo)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to read commands")
	}
	return first
}

// Fail prints err in the error style
func (h *Host) Fail(err error) {
	h.printf("%s %s\n", h.palette.Error("error:"), err)
}

// Close drops the host's cache subscriptions
func (h *Host) Close() {
	for id := range h.watches {
		h.unwatch(id)
	}
}

func (h *Host) printf(format string, args ...interface{}) {
	fmt.Fprintf(h.out, format, args...)
}

func (h *Host) println(s string) {
	fmt.Fprintln(h.out, s)
}

func (h *Host) watch(c *cache.Cache) bool {
	if _, ok := h.watches[c.ID()]; ok {
		return false
	}
	id := c.ID()
	h.watches[id] = c.Subscribe(func(e notify.Event) {
		h.printf("%s %s\n", h.palette.Muted("~"), h.palette.Muted(fmt.Sprintf("cache %s changed", id)))
	})
	return true
}

func (h *Host) unwatch(id string) bool {
	sub, ok := h.watches[id]
	if !ok {
		return false
	}
	if c, found := h.dir.Lookup(id); found {
		c.Unsubscribe(sub)
	}
	delete(h.watches, id)
	return true
}
