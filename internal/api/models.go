package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-tutor/internal/domain"
	"github.com/phrazzld/scry-tutor/internal/service"
	"github.com/phrazzld/scry-tutor/internal/service/card_review"
)

// dateLayout renders study dates as ISO 8601 calendar dates.
const dateLayout = "2006-01-02"

// SubmitReviewRequest is the payload for POST /reviews.
type SubmitReviewRequest struct {
	CardID     string `json:"card_id"     validate:"required,uuid"`
	UserID     string `json:"user_id"     validate:"required,uuid"`
	UserAnswer string `json:"user_answer" validate:"required"`
}

// ReviewResponse reports the outcome of a review.
type ReviewResponse struct {
	CardID           uuid.UUID `json:"card_id"`
	AIScore          float64   `json:"ai_score"`
	FSRSRating       int       `json:"fsrs_rating"`
	ValidationMethod string    `json:"validation_method"`
	NextReviewInDays int       `json:"next_review_in_days"`
}

func reviewToResponse(o *card_review.Outcome) ReviewResponse {
	return ReviewResponse{
		CardID:           o.CardID,
		AIScore:          o.Score,
		FSRSRating:       int(o.Rating),
		ValidationMethod: string(o.Method),
		NextReviewInDays: o.ScheduledDays,
	}
}

// CreateCardRequest is the payload for POST /users/{user_id}/cards.
type CreateCardRequest struct {
	Question string  `json:"question"          validate:"required"`
	Answer   string  `json:"answer"            validate:"required"`
	DeckID   *string `json:"deck_id,omitempty" validate:"omitempty,uuid"`
}

// CardResponse is the public view of a card. The answer embedding is never
// exposed.
type CardResponse struct {
	ID           uuid.UUID              `json:"id"`
	UserID       uuid.UUID              `json:"user_id"`
	DeckID       *uuid.UUID             `json:"deck_id,omitempty"`
	Question     string                 `json:"question"`
	Answer       string                 `json:"answer"`
	FSRSState    domain.SchedulingState `json:"fsrs_state"`
	HasEmbedding bool                   `json:"has_embedding"`
	NextReviewAt *time.Time             `json:"next_review_at,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

func cardToResponse(c *domain.Card) CardResponse {
	return CardResponse{
		ID:           c.ID,
		UserID:       c.UserID,
		DeckID:       c.DeckID,
		Question:     c.Question,
		Answer:       c.Answer,
		FSRSState:    c.State,
		HasEmbedding: c.HasEmbedding(),
		NextReviewAt: c.State.NextReviewAt(),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// ReviewLogResponse is one entry in a card's review history.
type ReviewLogResponse struct {
	ID               uuid.UUID `json:"id"`
	CardID           uuid.UUID `json:"card_id"`
	UserAnswer       string    `json:"user_answer"`
	AIScore          float64   `json:"ai_score"`
	FSRSRating       int       `json:"fsrs_rating"`
	ValidationMethod string    `json:"validation_method"`
	ScheduledDays    int       `json:"scheduled_days"`
	CreatedAt        time.Time `json:"created_at"`
}

func cardsToResponse(cards []*domain.Card) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardToResponse(c))
	}
	return out
}

func reviewLogsToResponse(logs []*domain.ReviewLog) []ReviewLogResponse {
	out := make([]ReviewLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, ReviewLogResponse{
			ID:               l.ID,
			CardID:           l.CardID,
			UserAnswer:       l.UserAnswer,
			AIScore:          l.Score,
			FSRSRating:       int(l.Rating),
			ValidationMethod: string(l.Method),
			ScheduledDays:    l.ScheduledDays,
			CreatedAt:        l.CreatedAt,
		})
	}
	return out
}

// CreateDeckRequest is the payload for POST /users/{user_id}/decks.
type CreateDeckRequest struct {
	Name        string  `json:"name"                  validate:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

// DeckResponse is the public view of a deck.
type DeckResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func deckToResponse(d *domain.Deck) DeckResponse {
	return DeckResponse{
		ID:          d.ID,
		UserID:      d.UserID,
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func decksToResponse(decks []*domain.Deck) []DeckResponse {
	out := make([]DeckResponse, 0, len(decks))
	for _, d := range decks {
		out = append(out, deckToResponse(d))
	}
	return out
}

// UserStatsResponse summarizes a user's review history.
type UserStatsResponse struct {
	UserID             uuid.UUID `json:"user_id"`
	TotalReviews       int       `json:"total_reviews"`
	CorrectReviews     int       `json:"correct_reviews"`
	DaysStudied        int       `json:"days_studied"`
	AccuracyPercentage float64   `json:"accuracy_percentage"`
	LastActiveDate     *string   `json:"last_active_date"`
}

func userStatsToResponse(s *domain.UserStats) UserStatsResponse {
	return UserStatsResponse{
		UserID:             s.UserID,
		TotalReviews:       s.TotalReviews,
		CorrectReviews:     s.CorrectReviews,
		DaysStudied:        s.DaysStudied,
		AccuracyPercentage: s.Accuracy(),
		LastActiveDate:     formatDate(s.LastActiveDate),
	}
}

// DeckStatsResponse summarizes the reviews of one deck.
type DeckStatsResponse struct {
	DeckID             uuid.UUID `json:"deck_id"`
	DeckName           string    `json:"deck_name"`
	TotalCards         int       `json:"total_cards"`
	TotalReviews       int       `json:"total_reviews"`
	CorrectReviews     int       `json:"correct_reviews"`
	DaysStudied        int       `json:"days_studied"`
	AccuracyPercentage float64   `json:"accuracy_percentage"`
	LastActiveDate     *string   `json:"last_active_date"`
}

func deckStatsToResponse(r *service.DeckStatsReport) DeckStatsResponse {
	return DeckStatsResponse{
		DeckID:             r.DeckID,
		DeckName:           r.DeckName,
		TotalCards:         r.TotalCards,
		TotalReviews:       r.TotalReviews,
		CorrectReviews:     r.CorrectReviews,
		DaysStudied:        r.DaysStudied,
		AccuracyPercentage: r.Accuracy(),
		LastActiveDate:     formatDate(r.LastActiveDate),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(dateLayout)
	return &s
}
