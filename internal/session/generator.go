package session

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gorewood/ambient/internal/logging"
	"github.com/gorewood/ambient/internal/runner"
)

// ExecGenerator runs an executable entry point and uses its stdout as the
// session context.
type ExecGenerator struct {
	// Entrypoint is the absolute path of the executable. It is run with no
	// arguments.
	Entrypoint string
	// Dir is the working directory for the run.
	Dir string
	// Timeout bounds a run. Zero means no limit beyond the base context.
	Timeout time.Duration
	Runner  runner.Runner
	Logger  *zap.Logger
}

// Generate implements Generator. Every failure is logged and reported as
// absent.
func (g ExecGenerator) Generate(ctx context.Context) (string, bool) {
	log := logging.OrNop(g.Logger).With(zap.String("entrypoint", g.Entrypoint))

	info, err := os.Stat(g.Entrypoint)
	if err != nil {
		log.Warn("session context entry point not found", zap.Error(err))
		return "", false
	}
	if info.IsDir() {
		log.Warn("session context entry point is a directory")
		return "", false
	}

	if g.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.Timeout)
		defer cancel()
	}

	r := g.Runner
	if r == nil {
		r = runner.Exec{}
	}
	res := r.Run(ctx, g.Dir, g.Entrypoint)
	if !res.OK() {
		log.Warn("session context entry point failed",
			zap.Int("exit_code", res.ExitCode),
			zap.String("output", res.Combined()))
		return "", false
	}

	text := res.Output()
	if text == "" {
		log.Debug("session context entry point produced no output")
		return "", false
	}
	return text, true
}
