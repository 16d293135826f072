package captcha

import (
	"context"
	"fmt"
	"time"

	"github.com/rahul-omni/court-scraper/pkg/logger"
)

// Solver drives one challenge to acceptance or exhaustion. It makes
// at most Policy.MaxAttempts oracle calls and at most that many form
// submissions; a SiteError aborts without consuming the remaining
// budget.
type Solver struct {
	oracle     Oracle
	classifier *Classifier
	policy     Policy
	logger     *logger.Logger

	// sleep is swapped out in tests so the retry contract can be
	// exercised without real timers.
	sleep func(time.Duration)
}

func NewSolver(oracle Oracle, classifier *Classifier, policy Policy, log *logger.Logger) *Solver {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	return &Solver{
		oracle:     oracle,
		classifier: classifier,
		policy:     policy,
		logger:     log,
		sleep:      time.Sleep,
	}
}

// Resolve runs the attempt loop against one challenge. It returns
// ErrExhausted when the budget runs out, a *SiteError when the site
// reports a non-CAPTCHA condition, and wraps driver failures as-is.
// An in-flight attempt always completes; cancellation is honored at
// attempt boundaries.
func (s *Solver) Resolve(ctx context.Context, ch Challenge) (*Result, error) {
	lastKind := ErrorNone

	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s.sleep(s.policy.AttemptDelay)
		}

		image, err := ch.CaptureImage(ctx)
		if err != nil {
			lastKind = ErrorOracleFailure
			s.logger.Warn("failed to capture challenge image",
				"attempt", attempt, "error", err)
			continue
		}

		raw, err := s.oracle.Solve(ctx, image)
		if err != nil {
			lastKind = ErrorOracleFailure
			s.logger.Warn("oracle failed",
				"attempt", attempt, "classification", lastKind.String(), "error", err)
			continue
		}

		answer := Sanitize(raw)
		if len(answer) < s.policy.MinAnswerLen || len(answer) > s.policy.MaxAnswerLen {
			// Out-of-window answers are oracle noise; submitting them
			// would burn a form submission on a guaranteed rejection.
			lastKind = ErrorOracleFailure
			s.logger.Warn("oracle answer outside accepted length window",
				"attempt", attempt, "length", len(answer),
				"min", s.policy.MinAnswerLen, "max", s.policy.MaxAnswerLen)
			continue
		}

		state, err := ch.SubmitAnswer(ctx, answer)
		if err != nil {
			return nil, fmt.Errorf("failed to submit answer: %w", err)
		}

		if !state.HasErrorIndicator() {
			s.logger.Info("captcha accepted", "attempt", attempt)
			return &Result{Answer: answer, Attempts: attempt}, nil
		}

		errText := state.ErrorText()
		kind := s.classifier.Classify(errText)
		lastKind = kind
		s.logger.Info("captcha attempt rejected",
			"attempt", attempt, "classification", kind.String(), "error", errText)

		switch kind {
		case ErrorWrongAnswer:
			if err := ch.Refresh(ctx); err != nil {
				s.logger.Debug("challenge refresh failed", "error", err)
			}
		case ErrorSiteError:
			return nil, &SiteError{Text: errText}
		default:
			// No error indicator text despite the flag; treat as a
			// wrong answer and retry.
			if err := ch.Refresh(ctx); err != nil {
				s.logger.Debug("challenge refresh failed", "error", err)
			}
		}
	}

	s.logger.Warn("captcha attempts exhausted",
		"max_attempts", s.policy.MaxAttempts, "last_classification", lastKind.String())
	return nil, ErrExhausted
}
