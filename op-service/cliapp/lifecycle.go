// Package cliapp runs long-lived services from urfave/cli actions.
package cliapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

// Lifecycle is a service that can be started once and stopped once.
type Lifecycle interface {
	// Start starts the service. It must not block once the service is running.
	Start(ctx context.Context) error
	// Stop stops the service. The ctx may be cancelled to force-close the service.
	Stop(ctx context.Context) error
	// Stopped reports whether the service was stopped.
	Stopped() bool
}

// LifecycleAction instantiates a Lifecycle from the CLI context.
// The close function, when called, requests the service to shut itself down.
type LifecycleAction func(ctx *cli.Context, close context.CancelCauseFunc) (Lifecycle, error)

// StopTimeout bounds a graceful shutdown. After it the stop context is cancelled.
var StopTimeout = 10 * time.Second

// LifecycleCmd turns a LifecycleAction into a cli action: the service is created and started,
// runs until the app context is done or the service requests a shutdown, and is then stopped.
func LifecycleCmd(fn LifecycleAction) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		appCtx, appCancel := context.WithCancelCause(ctx.Context)
		defer appCancel(nil)

		ctx.Context = appCtx
		appLifecycle, err := fn(ctx, appCancel)
		if err != nil {
			return errors.Join(
				fmt.Errorf("failed to setup: %w", err),
				context.Cause(appCtx),
			)
		}

		if err := appLifecycle.Start(appCtx); err != nil {
			return errors.Join(
				fmt.Errorf("failed to start: %w", err),
				context.Cause(appCtx),
			)
		}

		<-appCtx.Done()

		stopCtx, stopCancel := context.WithTimeout(context.Background(), StopTimeout)
		defer stopCancel()
		stopErr := appLifecycle.Stop(stopCtx)
		cause := context.Cause(appCtx)
		if errors.Is(cause, context.Canceled) {
			cause = nil
		}
		if stopErr != nil {
			return errors.Join(fmt.Errorf("failed to stop: %w", stopErr), cause)
		}
		return cause
	}
}
