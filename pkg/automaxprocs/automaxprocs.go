// Package automaxprocs sets GOMAXPROCS to the container CPU quota and logs the change.
package automaxprocs

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	undo            func()
	initialMaxProcs = Current()
)

// Init sets GOMAXPROCS. It is a no-op outside Linux and without a CPU quota.
// A GOMAXPROCS environment variable takes precedence.
func Init() error {
	ctx := logger.WithContext(context.Background(),
		slogx.String("package", "automaxprocs"),
		slogx.String("event", "set_gomaxprocs"),
		slogx.Int("prev_maxprocs", initialMaxProcs),
	)
	printf := func(format string, v ...any) {
		logger.LogAttrs(ctx, slog.LevelInfo, fmt.Sprintf(format, v...), slogx.Int("set_maxprocs", Current()))
	}

	revert, err := maxprocs.Set(maxprocs.Logger(printf), maxprocs.Min(1))
	if err != nil {
		return errors.WithStack(err)
	}
	undo = revert
	return nil
}

// Undo restores the GOMAXPROCS value from before Init and returns it.
func Undo() int {
	if undo != nil {
		undo()
		undo = nil
		return Current()
	}
	runtime.GOMAXPROCS(initialMaxProcs)
	return initialMaxProcs
}

// Current returns the current value of GOMAXPROCS.
func Current() int {
	return runtime.GOMAXPROCS(0)
}
