package backend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"grounds/internal/logging"
)

// ErrChainExhausted wraps the last failure after every model in the chain
// has been tried.
var ErrChainExhausted = errors.New("model chain exhausted")

const (
	retryDelayBase   = 800 * time.Millisecond
	retryDelayJitter = 400 * time.Millisecond

	// overloadCeilingNum/Den shrink the token ceiling on the single
	// transient-overload retry: the retry must ask for less output than
	// the attempt that got throttled.
	overloadCeilingNum = 3
	overloadCeilingDen = 5
)

// Caller wraps one backend adapter with model resolution, failure
// classification and the retry/fallback chain. It holds no mutable state
// beyond its random source and is safe for concurrent use per request
// (each compare unit owns its own Caller).
type Caller struct {
	backendID string
	adapter   Adapter
	models    ModelTable

	// sleep and jitter are injectable for tests.
	sleep  func(time.Duration)
	jitter func() time.Duration
}

// NewCaller wires an adapter to its model table.
func NewCaller(backendID string, adapter Adapter, models ModelTable) *Caller {
	return &Caller{
		backendID: backendID,
		adapter:   adapter,
		models:    models,
		sleep:     time.Sleep,
		jitter: func() time.Duration {
			return retryDelayBase + time.Duration(rand.Int63n(int64(retryDelayJitter)))
		},
	}
}

// Models exposes the caller's alias table (the repair pass needs the
// escalation model).
func (c *Caller) Models() ModelTable { return c.models }

// BackendID returns the wrapped backend's id.
func (c *Caller) BackendID() string { return c.backendID }

// Call resolves the requested model and walks the fallback chain until one
// call succeeds. The chain terminates early on success, on a hard
// quota/rate-limit classification, or when the model list is exhausted
// (surfacing the last error).
func (c *Caller) Call(ctx context.Context, req Request) (*Result, error) {
	_, chain := c.models.Resolve(req.Model)

	var lastErr error
	for _, model := range chain {
		attempt := req
		attempt.Model = model

		res, err := c.adapter.Run(ctx, attempt)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var ce *CallError
		if !errors.As(err, &ce) {
			// Transport-level failure with no classification; advance.
			logging.APIWarn("%s: %s failed without classification: %v", c.backendID, model, err)
			continue
		}

		switch ce.Class {
		case ClassHardQuota:
			logging.APIWarn("%s: hard quota on %s, aborting chain", c.backendID, model)
			return nil, err

		case ClassTransientOverload:
			retry := attempt
			if retry.MaxTokens > 0 {
				retry.MaxTokens = retry.MaxTokens * overloadCeilingNum / overloadCeilingDen
			}
			delay := c.jitter()
			logging.APIDebug("%s: overload on %s, retrying once in %v with ceiling %d",
				c.backendID, model, delay, retry.MaxTokens)
			c.sleep(delay)

			res, err = c.adapter.Run(ctx, retry)
			if err == nil {
				return res, nil
			}
			lastErr = err
			if errors.As(err, &ce) && ce.Class == ClassHardQuota {
				return nil, err
			}

		case ClassSystemInstructionRejected:
			if attempt.System != "" {
				merged := attempt
				merged.Prompt = merged.System + "\n\n" + merged.Prompt
				merged.System = ""
				logging.APIDebug("%s: system instruction rejected on %s, retrying merged", c.backendID, model)

				res, err = c.adapter.Run(ctx, merged)
				if err == nil {
					return res, nil
				}
				lastErr = err
				if errors.As(err, &ce) && ce.Class == ClassHardQuota {
					logging.APIWarn("%s: hard quota on merged retry, aborting chain", c.backendID)
					return nil, err
				}
			}

		case ClassModelMismatch, ClassUnknown:
			// Advance to the next model, no retry.
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%s: %w: %w", c.backendID, ErrChainExhausted, lastErr)
}

// AttemptedModel extracts the model id from a classified call error, so a
// failed candidate can still report which model was tried.
func AttemptedModel(err error) string {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Model
	}
	return ""
}
