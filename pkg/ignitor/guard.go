package ignitor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ignitor/pkg/container"
)

// WarningMessage is logged the first time a background failure is reported.
const WarningMessage = `WARNING: ignitor has detected an unobserved background failure, which may
cause undesired behavior in production. To stop this warning, handle the
error returned by the goroutine or recover from its panic.`

// Go runs fn in a goroutine. A returned error or a panic is passed to Report.
func (ig *Ignitor) Go(fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ig.Report(fmt.Errorf("panic: %v", r))
			}
		}()
		if err := fn(); err != nil {
			ig.Report(err)
		}
	}()
}

// Report records a failure nobody else is waiting on. It is live from New on,
// so failures during Fire are caught as well as after handoff. The first one
// logs WarningMessage through the logger service, or to stderr when no logger
// is bound. Later ones are logged at debug. Report never stops the process.
func (ig *Ignitor) Report(err error) {
	if err == nil {
		return
	}
	ig.metrics.AsyncFailure()

	ctx := context.Background()
	if !ig.warned.CompareAndSwap(false, true) {
		ig.logger.Debug(ctx, "background failure", zap.Error(err))
		return
	}

	if w, ok := ig.serviceLogger(); ok {
		w.Warn(ctx, WarningMessage, zap.Error(err))
		return
	}
	fmt.Fprintln(ig.stderr, WarningMessage)
	fmt.Fprintln(ig.stderr, err)
}

func (ig *Ignitor) serviceLogger() (warner, bool) {
	if !ig.c.HasBinding(LoggerService) {
		return nil, false
	}
	w, err := container.Make[warner](ig.c, LoggerService)
	return w, err == nil
}
