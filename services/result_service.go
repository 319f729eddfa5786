package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pickYourSocksAPI/internal/logging"
	rules "pickYourSocksAPI/internal/match"
	"pickYourSocksAPI/internal/metrics"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/types/match"
	"pickYourSocksAPI/internal/types/notification"
)

type ClaimResponse struct {
	Result  *match.MatchResult `json:"result"`
	Outcome rules.Outcome      `json:"outcome"`
	Message string             `json:"message"`
}

type ResultService struct {
	store    ResultStore
	matches  MatchStore
	notifier Notifier
	events   EventPublisher
}

func NewResultService(store ResultStore, matches MatchStore, notifier Notifier, events EventPublisher) *ResultService {
	return &ResultService{store: store, matches: matches, notifier: notifier, events: events}
}

// SubmitClaim records the caller's view of who won. The store writes only the
// caller's slot and derives verification in the same transaction.
func (s *ResultService) SubmitClaim(ctx context.Context, sess session.Session, matchID uuid.UUID, req *match.SubmitClaimRequest) (*ClaimResponse, error) {
	score := strings.TrimSpace(req.Score)
	if score == "" {
		return nil, fmt.Errorf("%w: score is required", ErrInvalidClaim)
	}
	if req.ResultType != match.ResultWin && req.ResultType != match.ResultLoss {
		return nil, fmt.Errorf("%w: result_type must be win or loss", ErrInvalidClaim)
	}

	log := logging.Log.WithFields(logrus.Fields{
		"user_id":  sess.UserID,
		"match_id": matchID,
	})

	r, m, err := s.store.SubmitClaim(ctx, matchID, sess.UserID, req.ResultType, score)
	if err != nil {
		return nil, notFound(err, ErrMatchNotFound)
	}

	outcome := rules.OutcomeOf(r)
	metrics.ResultClaims.WithLabelValues(string(outcome)).Inc()
	log.WithField("outcome", outcome).Info("SubmitClaim: claim recorded")

	resp := &ClaimResponse{Result: r, Outcome: outcome}
	data := map[string]any{"match_id": matchID.String(), "sport": m.Sport}

	switch outcome {
	case rules.OutcomeAwaiting:
		resp.Message = "Result submitted. Waiting for your opponent to confirm."
		if other, err := rules.Counterpart(m, sess.UserID); err == nil {
			s.notify(ctx, other, notification.TypeResultClaimed, "Confirm the result",
				fmt.Sprintf("Your opponent reported the %s result. Submit yours to confirm.", m.Sport), data)
		}
	case rules.OutcomeVerified:
		resp.Message = "Result verified."
		for _, id := range []uuid.UUID{r.Player1ID, r.Player2ID} {
			s.notify(ctx, id, notification.TypeResultVerified, "Result verified",
				fmt.Sprintf("Both players agree on the %s result.", m.Sport), data)
		}
	case rules.OutcomeDisputed:
		resp.Message = "Your claims disagree. The result stays unverified until you both agree."
		log.Warn("SubmitClaim: claims disagree")
		for _, id := range []uuid.UUID{r.Player1ID, r.Player2ID} {
			s.notify(ctx, id, notification.TypeResultDisputed, "Result disputed",
				fmt.Sprintf("You and your opponent reported different winners for the %s match.", m.Sport), data)
		}
	}

	if s.events != nil {
		event := EventUpdate
		if r.CreatedAt.Equal(r.UpdatedAt) {
			event = EventInsert
		}
		s.events.Publish(ChangeEvent{
			Table:    TableMatchResults,
			Event:    event,
			Record:   r,
			Audience: []uuid.UUID{r.Player1ID, r.Player2ID},
		})
	}
	return resp, nil
}

func (s *ResultService) notify(ctx context.Context, userID uuid.UUID, t notification.NotificationType, title, msg string, data map[string]any) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, t, title, msg, data)
	}
}

func (s *ResultService) GetResult(ctx context.Context, sess session.Session, matchID uuid.UUID) (*match.MatchResult, error) {
	m, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, notFound(err, ErrMatchNotFound)
	}
	if !rules.IsInvolved(m, sess.UserID) {
		return nil, ErrNotParticipant
	}

	r, err := s.store.GetResult(ctx, matchID)
	if err != nil {
		return nil, notFound(err, ErrResultNotFound)
	}
	return r, nil
}
