package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
)

// FrameSource produces frames for the pipeline. Next blocks until a frame is
// available and returns io.EOF once the source is exhausted.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// Run pulls frames from src and ticks them until ctx is done or src is
// exhausted. Exhaustion is not an error.
func (a *App) Run(ctx context.Context, src FrameSource) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading frame: %w", err)
		}

		a.Tick(f)
	}
}

// Start runs the pipeline on src in the background until Stop is called or
// src is exhausted.
func (a *App) Start(src FrameSource) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	go func() {
		defer close(done)
		if err := a.Run(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Recognition pipeline failed: %v", err)
		}
	}()

	log.Println("Recognition pipeline started")
}

// Stop halts a pipeline started with Start and waits for it to finish.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
	log.Println("Recognition pipeline stopped")
}

// Running reports whether a pipeline started with Start is still running.
func (a *App) Running() bool {
	a.mu.RLock()
	done := a.done
	a.mu.RUnlock()

	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
