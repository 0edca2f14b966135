// Package forecaster bridges to the out-of-process time-series forecaster.
//
// The process reads a JSON array of {date, category, amount} records on stdin
// and prints a JSON object of category to predicted month-end total on stdout.
// Any deviation from that contract is reported as ErrUnavailable.
package forecaster

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/avast/retry-go"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/cloudexpense/pkg/api"
)

// DefaultTimeout bounds a single forecaster run.
const DefaultTimeout = 30 * time.Second

// Config holds the subprocess configuration.
type Config struct {
	Command string
	Args    []string
	// RetryCommand replaces Command for the single retry after a transient failure.
	// Empty means retry with Command.
	RetryCommand string
	// Timeout bounds each attempt; the process is killed when it expires.
	Timeout time.Duration
	// RetryDelay is the pause before the retry.
	RetryDelay time.Duration
	WorkDir    string
}

// Subprocess is a Forecaster backed by an external process.
type Subprocess struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

// New creates a subprocess forecaster. A nil runner uses ExecRunner.
func New(cfg Config, runner Runner, logger *slog.Logger) *Subprocess {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subprocess{cfg: cfg, runner: runner, logger: logger}
}

// maxAttempts is the first run plus one retry.
const maxAttempts = 2

// Forecast runs the external process once, plus one retry for known environment
// failures. Every error it returns matches ErrUnavailable.
func (s *Subprocess) Forecast(ctx context.Context, records []api.TransactionRecord) (map[string]decimal.Decimal, error) {
	input, err := json.Marshal(records)
	if err != nil {
		return nil, &Error{Kind: KindStart, Err: fmt.Errorf("encoding input: %w", err)}
	}

	var (
		predictions map[string]decimal.Decimal
		attempt     int
	)
	err = retry.Do(
		func() error {
			name := s.cfg.Command
			if attempt > 0 && s.cfg.RetryCommand != "" {
				name = s.cfg.RetryCommand
			}
			attempt++

			var runErr error
			predictions, runErr = s.run(ctx, name, input)
			return runErr
		},
		retry.RetryIf(IsTransient),
		retry.OnRetry(func(n uint, err error) {
			// Also called after the final attempt, when nothing follows.
			if n+1 >= maxAttempts {
				return
			}
			s.logger.Warn("retrying forecaster after environment error",
				"attempt", n+1,
				"error", err,
			)
		}),
		retry.Attempts(maxAttempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		var fe *Error
		if !errors.As(err, &fe) {
			// retry.Context surfaces the parent context error on its own.
			err = &Error{Kind: KindTimeout, Err: err}
		}
		return nil, err
	}

	s.logger.Info("forecaster succeeded", "categories", len(predictions), "attempts", attempt)
	return predictions, nil
}

func (s *Subprocess) run(ctx context.Context, name string, input []byte) (map[string]decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	cmd := Command{Name: name, Args: s.cfg.Args, Dir: s.cfg.WorkDir}
	stdout, stderr, err := s.runner.Run(ctx, cmd, input, s.logger)
	excerpt := truncate(string(stderr), 2<<10)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &Error{Kind: KindTimeout, Stderr: excerpt, Err: ctxErr}
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &Error{Kind: KindExit, ExitCode: exitErr.ExitCode(), Stderr: excerpt, Err: err}
		}
		return nil, &Error{Kind: KindStart, ExitCode: -1, Stderr: excerpt, Err: err}
	}

	return parseOutput(stdout)
}

// parseOutput decodes the forecaster's stdout. Diagnostic lines printed before the
// result are tolerated: the last non-empty line is tried when the whole output
// is not valid JSON.
func parseOutput(stdout []byte) (map[string]decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return nil, &Error{Kind: KindNoOutput}
	}

	var predictions map[string]decimal.Decimal
	err := json.Unmarshal(trimmed, &predictions)
	if err != nil {
		lines := bytes.Split(trimmed, []byte("\n"))
		last := bytes.TrimSpace(lines[len(lines)-1])
		if lastErr := json.Unmarshal(last, &predictions); lastErr != nil {
			return nil, &Error{Kind: KindUnparsable, Err: err}
		}
	}

	if len(predictions) == 0 {
		return nil, &Error{Kind: KindEmpty}
	}
	return predictions, nil
}

// Disabled is a Forecaster that is never available.
type Disabled struct{}

func (Disabled) Forecast(context.Context, []api.TransactionRecord) (map[string]decimal.Decimal, error) {
	return nil, &Error{Kind: KindDisabled}
}
