package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/catleg"
	"github.com/fwojciec/catleg/config"
	"github.com/fwojciec/catleg/htmltomarkdown"
	"github.com/fwojciec/catleg/legifrance"
	"github.com/fwojciec/catleg/mdformat"
	"github.com/fwojciec/catleg/skeleton"
	catslog "github.com/fwojciec/catleg/slog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		code := ExitCode(err, os.Stderr)
		stop()
		os.Exit(code)
	}
}

// ExitCode returns the exit status for an error returned by Main.Run. Errors
// not already reported by a command are written to w.
func ExitCode(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	var reported *ReportedError
	if !errors.As(err, &reported) {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return 1
}

// ReportedError wraps an error whose message a command already wrote.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string { return e.Err.Error() }

func (e *ReportedError) Unwrap() error { return e.Err }

// report writes the user-facing message of err and marks it as reported.
func report(w io.Writer, err error) error {
	fmt.Fprintf(w, "error: %s\n", catleg.ErrorMessage(err))
	return &ReportedError{Err: err}
}

// ExitError carries the exit status of a command that ran to completion but
// found problems, such as differing articles.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Main represents the program.
type Main struct {
	// Directory holding the configuration files. Set before calling Run().
	Dir string

	// Getenv reads environment overrides of the configuration.
	Getenv func(string) string

	// Now returns the current time.
	Now func() time.Time

	// Reference text services. When nil, a Legifrance client is built from
	// the configuration.
	Backend    catleg.Backend
	RawQuerier catleg.RawQuerier
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		Dir:    ".",
		Getenv: os.Getenv,
		Now:    time.Now,
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("catleg"),
		kong.Description("Keep Catala sources in sync with French law texts."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'catleg --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(m.Dir, m.Getenv)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	// Parsing is local; every other command talks to Legifrance.
	if cmd != "parse" {
		if err := m.wireBackend(cfg, deps); err != nil {
			return err
		}
		deps.Skeletons = skeleton.NewBuilder(
			deps.Backend,
			htmltomarkdown.NewConverter(),
			mdformat.NewFormatter(mdformat.DefaultWidth),
		)
		deps.ServeTimeout = cfg.Legifrance().Timeout * 2
	}

	return kongCtx.Run(deps)
}

func (m *Main) wireBackend(cfg *config.Config, deps *Dependencies) error {
	backend, raw := m.Backend, m.RawQuerier
	if backend == nil || raw == nil {
		client, err := legifrance.NewClient(cfg.Legifrance(), legifrance.WithLogger(deps.Logger))
		if err != nil {
			return report(deps.Stderr, err)
		}
		if backend == nil {
			backend = client
		}
		if raw == nil {
			raw = client
		}
	}
	deps.Backend = catslog.NewLoggingBackend(backend, deps.Logger)
	deps.RawQuerier = raw
	return nil
}
