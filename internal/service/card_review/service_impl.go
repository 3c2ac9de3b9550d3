package card_review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/domain/srs"
	"github.com/phrazzld/scry-tutor/internal/events"
	"github.com/phrazzld/scry-tutor/internal/platform/logger"
	"github.com/phrazzld/scry-tutor/internal/store"
	"github.com/phrazzld/scry-tutor/internal/validation"
	"github.com/sethvargo/go-retry"
)

const (
	defaultConflictBackoff = 10 * time.Millisecond
	conflictJitterPercent  = 25
)

// AnswerValidator scores a submitted answer. *validation.Cascade satisfies it.
type AnswerValidator interface {
	Validate(ctx context.Context, in validation.Input) (domain.ValidationOutcome, error)
}

var _ AnswerValidator = (*validation.Cascade)(nil)

// Dependencies are the collaborators of the review service. Clock is
// optional and defaults to time.Now.
type Dependencies struct {
	Cards      store.CardStore
	Transactor store.Transactor
	Validator  AnswerValidator
	Scheduler  srs.Service
	Emitter    events.EventEmitter
	Clock      func() time.Time
}

// serviceImpl implements the Service interface
type serviceImpl struct {
	cards      store.CardStore
	transactor store.Transactor
	validator  AnswerValidator
	scheduler  srs.Service
	emitter    events.EventEmitter
	clock      func() time.Time
	locks      *cardLocks
	maxRetries uint64
	backoff    time.Duration
	logger     *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a review service. It panics when a required dependency
// is missing.
func NewService(deps Dependencies, cfg config.ReviewConfig, log *slog.Logger) Service {
	if deps.Cards == nil {
		panic("cards store cannot be nil")
	}
	if deps.Transactor == nil {
		panic("transactor cannot be nil")
	}
	if deps.Validator == nil {
		panic("answer validator cannot be nil")
	}
	if deps.Scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if deps.Emitter == nil {
		panic("event emitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	backoff := cfg.ConflictBackoff
	if backoff <= 0 {
		backoff = defaultConflictBackoff
	}
	retries := cfg.MaxConflictRetries
	if retries < 0 {
		retries = 0
	}

	return &serviceImpl{
		cards:      deps.Cards,
		transactor: deps.Transactor,
		validator:  deps.Validator,
		scheduler:  deps.Scheduler,
		emitter:    deps.Emitter,
		clock:      clock,
		locks:      newCardLocks(),
		maxRetries: uint64(retries),
		backoff:    backoff,
		logger:     log.With(slog.String("component", "card_review_service")),
	}
}

// Review implements Service.
func (s *serviceImpl) Review(ctx context.Context, cardID, userID uuid.UUID, answer string) (*Outcome, error) {
	if cardID == uuid.Nil {
		return nil, NewReviewError("review", "card id is required", ErrInvalidReview)
	}
	if userID == uuid.Nil {
		return nil, NewReviewError("review", "user id is required", ErrInvalidReview)
	}

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("card_id", cardID.String()),
		slog.String("user_id", userID.String()),
	)
	ctx = logger.WithLogger(ctx, log)

	release, err := s.locks.acquire(ctx, cardID)
	if err != nil {
		return nil, err
	}
	defer release()

	card, err := s.loadCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	outcome, err := s.validator.Validate(ctx, validation.Input{
		Question:          card.Question,
		Expected:          card.Answer,
		Submitted:         answer,
		ExpectedEmbedding: card.AnswerEmbedding,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.ErrorContext(ctx, "answer validation failed", slog.String("error", err.Error()))
		return nil, NewReviewError("validate", "failed to score answer",
			fmt.Errorf("%w: %w", ErrValidatorUnavailable, err))
	}

	result, err := s.persist(ctx, card, userID, answer, outcome)
	if err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "card reviewed",
		slog.String("method", string(result.Method)),
		slog.Float64("score", result.Score),
		slog.Int("rating", int(result.Rating)),
		slog.Int("scheduled_days", result.ScheduledDays))

	s.publish(ctx, card, userID, result)
	return result, nil
}

// persist writes the review, retrying on version conflicts. Each retry
// reloads the card and recomputes the rating and transition from the fresh
// state; the validation outcome is reused.
func (s *serviceImpl) persist(
	ctx context.Context,
	card *domain.Card,
	userID uuid.UUID,
	answer string,
	outcome domain.ValidationOutcome,
) (*Outcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	b := retry.NewExponential(s.backoff)
	b = retry.WithJitterPercent(conflictJitterPercent, b)
	b = retry.WithMaxRetries(s.maxRetries, b)

	current := card
	attempt := 0
	var result *Outcome

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			fresh, err := s.loadCard(ctx, card.ID)
			if err != nil {
				return err
			}
			current = fresh
		}

		res, err := s.apply(ctx, current, userID, answer, outcome)
		if errors.Is(err, store.ErrVersionConflict) {
			log.WarnContext(ctx, "version conflict while saving review",
				slog.Int("attempt", attempt),
				slog.Int64("expected_version", current.Version))
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err == nil {
		return result, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, store.ErrVersionConflict) {
		log.ErrorContext(ctx, "review conflict retries exhausted", slog.Int("attempts", attempt))
		return nil, NewReviewError("persist", fmt.Sprintf("gave up after %d attempts", attempt),
			fmt.Errorf("%w: %w", ErrPersistenceConflict, err))
	}
	return nil, err
}

// apply computes the rating and next state for card and writes them with
// the review log in one transaction.
func (s *serviceImpl) apply(
	ctx context.Context,
	card *domain.Card,
	userID uuid.UUID,
	answer string,
	outcome domain.ValidationOutcome,
) (*Outcome, error) {
	now := s.clock().UTC()
	rating := srs.RatingFromScore(outcome.Score)

	state := card.State
	state.ElapsedDays = srs.ElapsedDays(state.LastReview, now)

	next, err := s.scheduler.Transition(state, rating, now)
	if err != nil {
		return nil, NewReviewError("transition", "failed to compute next state", err)
	}
	if err := next.Validate(); err != nil {
		return nil, NewReviewError("transition", "computed an invalid state",
			fmt.Errorf("%w: %w", ErrSerialization, err))
	}

	reviewLog, err := domain.NewReviewLog(card, userID, answer, outcome, rating, next.ScheduledDays, now)
	if err != nil {
		return nil, NewReviewError("persist", "invalid review log", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = s.transactor.WithinTx(ctx, func(ctx context.Context, st store.Stores) error {
		if _, err := st.Cards.UpdateState(ctx, card.ID, card.Version, next); err != nil {
			return err
		}
		return st.ReviewLogs.Append(ctx, reviewLog)
	})
	if err != nil {
		return nil, s.mapStoreError("persist", err)
	}

	return &Outcome{
		CardID:        card.ID,
		Score:         outcome.Score,
		Method:        outcome.Method,
		Rating:        rating,
		ScheduledDays: next.ScheduledDays,
		State:         next,
	}, nil
}

func (s *serviceImpl) loadCard(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError("load_card", err)
	}
	return card, nil
}

// mapStoreError translates store errors into the service taxonomy. Version
// conflicts and context errors pass through so the retry loop can see them.
func (s *serviceImpl) mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, store.ErrVersionConflict):
		return err
	case store.IsNotFoundError(err):
		return NewReviewError(op, "card does not exist", fmt.Errorf("%w: %w", ErrCardNotFound, err))
	case errors.Is(err, store.ErrSerialization):
		return NewReviewError(op, "stored state is invalid", fmt.Errorf("%w: %w", ErrSerialization, err))
	default:
		return NewReviewError(op, "store operation failed", err)
	}
}

// publish announces the review. Failures are logged and dropped.
func (s *serviceImpl) publish(ctx context.Context, card *domain.Card, userID uuid.UUID, result *Outcome) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewEvent(events.CardReviewed, events.CardReviewedPayload{
		CardID:     card.ID,
		UserID:     userID,
		DeckID:     card.DeckID,
		Score:      result.Score,
		Rating:     result.Rating,
		Method:     result.Method,
		ReviewedAt: *result.State.LastReview,
	})
	if err != nil {
		log.ErrorContext(ctx, "failed to build review event", slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.WarnContext(ctx, "failed to publish review event",
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}
