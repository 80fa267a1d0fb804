package core

import (
	"io"
	"os"

	"mull/config"
	"mull/internal/device"
	"mull/internal/retry"
	"mull/util"
)

// Hooks carries the caller's side of a run.  All fields are optional.
type Hooks struct {
	// Stdin is used for --input -; nil → os.Stdin.
	Stdin io.Reader
	// OnResult receives writer results; see PumpMode and ContendMode.
	OnResult func(Result)
}

// Build constructs the appropriate Mode from the given configuration.
// The endpoint is shared, never owned: the caller shuts it down.
func Build(cfg *config.Config, dev *device.Endpoint, logger *util.Logger, hooks Hooks) (Mode, error) {
	stdin := hooks.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	pool := util.NewBufPool(int(cfg.Chunk))
	var wait *retry.Backoff
	if cfg.Wait {
		wait = retry.DefaultBackoff()
	}

	if cfg.Writers <= 1 {
		in, err := buildInput(cfg, stdin)
		if err != nil {
			return nil, err
		}
		return &PumpMode{
			Device:   dev,
			Input:    in,
			Pool:     pool,
			Wait:     wait,
			Logger:   logger,
			OnResult: hooks.OnResult,
		}, nil
	}

	return &ContendMode{
		Device:  dev,
		Writers: cfg.Writers,
		Input: func(int) (io.Reader, error) {
			return NewPayload(cfg.Pattern, cfg.PayloadLimit())
		},
		Pool:     pool,
		Wait:     wait,
		Logger:   logger,
		OnResult: hooks.OnResult,
	}, nil
}

// buildInput selects the generated payload or opens --input.
func buildInput(cfg *config.Config, stdin io.Reader) (io.Reader, error) {
	if cfg.Generated() {
		return NewPayload(cfg.Pattern, cfg.PayloadLimit())
	}
	return OpenInput(cfg.Input, stdin, cfg.PayloadLimit())
}
