package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/visheshvs/nexportify/internal/services"
	"github.com/visheshvs/nexportify/internal/session"
	"github.com/visheshvs/nexportify/internal/shared"
	"github.com/visheshvs/nexportify/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	store   *session.Store
	catalog services.Catalog
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog, when set, bypasses the session store and API client; command
// actions talk to it directly. Tests use this seam.
type RunnerOpts struct {
	Config  *shared.Config
	Store   *session.Store
	Catalog services.Catalog
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		store:   opts.Store,
		catalog: opts.Catalog,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to a file logger while a TUI owns
// the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, exportCommand, reportCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// retryPolicy translates the fetch configuration into the client's policy.
func (r *Runner) retryPolicy() services.RetryPolicy {
	policy := services.DefaultRetryPolicy()
	if v := r.config.Fetch.TimeoutSeconds; v > 0 {
		policy.Timeout = time.Duration(v) * time.Second
	}
	if v := r.config.Fetch.BadGatewayRetries; v > 0 {
		policy.MaxBadGatewayRetries = v
	}
	if v := r.config.Fetch.BadGatewayStepMills; v > 0 {
		policy.BadGatewayStep = time.Duration(v) * time.Millisecond
	}
	policy.MaxRateLimitRetries = r.config.Fetch.RateLimitRetries
	return policy
}

// engine builds the aggregation engine for one command invocation, loading
// the stored session unless a catalog override is present.
func (r *Runner) engine() (*tasks.Engine, error) {
	catalog := r.catalog
	var discarder tasks.SessionDiscarder
	if r.store != nil {
		discarder = r.store
	}

	if catalog == nil {
		if r.store == nil {
			return nil, shared.ErrNotAuthenticated
		}
		sess, err := r.store.Load()
		if err != nil {
			return nil, err
		}
		catalog = services.NewClient(sess, r.retryPolicy(), r.logger)
	}

	engine := tasks.NewEngine(catalog, discarder, r.logger)
	engine.SetPacing(
		time.Duration(r.config.Fetch.StaggerStepMillis)*time.Millisecond,
		2*time.Duration(r.config.Fetch.StaggerStepMillis)*time.Millisecond,
	)
	return engine, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
