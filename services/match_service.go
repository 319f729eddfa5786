package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"

	"pickYourSocksAPI/internal/geo"
	"pickYourSocksAPI/internal/logging"
	rules "pickYourSocksAPI/internal/match"
	"pickYourSocksAPI/internal/metrics"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/match"
	"pickYourSocksAPI/internal/types/notification"
)

const InviteScheme = "pickyoursocks://match/"

type InviteQRResponse struct {
	MatchID      uuid.UUID `json:"match_id"`
	Link         string    `json:"link"`
	QrCodeBase64 string    `json:"qr_code_base64"`
}

type MatchService struct {
	store    MatchStore
	results  ResultStore
	profiles ProfileStore
	notifier Notifier
	events   EventPublisher
	radar    RadarInvalidator
	locator  geo.Locator
	radius   float64
}

func NewMatchService(store MatchStore, results ResultStore, profiles ProfileStore, notifier Notifier, events EventPublisher) *MatchService {
	return &MatchService{
		store:    store,
		results:  results,
		profiles: profiles,
		notifier: notifier,
		events:   events,
		radius:   geo.DefaultRadiusMeters,
	}
}

// SetLocator enables the IP fallback for check-ins whose device refused location access.
func (s *MatchService) SetLocator(l geo.Locator) {
	s.locator = l
}

func (s *MatchService) SetRadius(meters float64) {
	if meters > 0 {
		s.radius = meters
	}
}

func (s *MatchService) SetRadarInvalidator(r RadarInvalidator) {
	s.radar = r
}

func (s *MatchService) notify(ctx context.Context, userID uuid.UUID, t notification.NotificationType, title, msg string, m *match.MatchRequest) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, t, title, msg, map[string]any{
		"match_id": m.ID.String(),
		"sport":    m.Sport,
	})
}

// changed fans a write out to realtime subscribers and drops the radar cache of everyone involved.
func (s *MatchService) changed(ctx context.Context, event string, m *match.MatchRequest) {
	audience := rules.Audience(m)
	if s.events != nil {
		var record any = m
		if event == EventDelete {
			record = map[string]any{"id": m.ID}
		}
		s.events.Publish(ChangeEvent{Table: TableMatchRequests, Event: event, Record: record, Audience: audience})
	}
	if s.radar != nil {
		s.radar.Invalidate(ctx, audience...)
	}
}

func (s *MatchService) logger(sess session.Session, matchID uuid.UUID) *logrus.Entry {
	return logging.Log.WithFields(logrus.Fields{
		"user_id":  sess.UserID,
		"match_id": matchID,
	})
}

func (s *MatchService) creatorName(ctx context.Context, userID uuid.UUID) string {
	if s.profiles == nil {
		return "A player"
	}
	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil || p.Name == "" {
		return "A player"
	}
	return p.Name
}

func cleanSport(sport string) (string, error) {
	sport = normalizeSport(sport)
	if sport == "" {
		return "", fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}
	return sport, nil
}

func (s *MatchService) CreateChallenge(ctx context.Context, sess session.Session, req *match.CreateChallengeRequest) (*match.MatchRequest, error) {
	opponentID, err := uuid.Parse(strings.TrimSpace(req.OpponentID))
	if err != nil {
		return nil, fmt.Errorf("%w: opponent_id must be a valid id", ErrInvalidInput)
	}
	if opponentID == sess.UserID {
		return nil, ErrSelfChallenge
	}
	sport, err := cleanSport(req.Sport)
	if err != nil {
		return nil, err
	}
	if s.profiles != nil {
		if _, err := s.profiles.GetProfile(ctx, opponentID); err != nil {
			return nil, notFound(err, ErrProfileNotFound)
		}
	}

	m, err := s.store.CreateMatch(ctx, &match.MatchRequest{
		CreatorID:     sess.UserID,
		OpponentID:    &opponentID,
		Sport:         sport,
		Status:        match.StatusPending,
		ScheduledTime: req.ScheduledTime,
		LocationNote:  req.LocationNote,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	metrics.MatchesCreated.WithLabelValues(string(match.KindChallenge)).Inc()
	s.logger(sess, m.ID).WithField("opponent_id", opponentID).Info("CreateChallenge: challenge sent")

	s.notify(ctx, opponentID, notification.TypeChallengeReceived, "New challenge",
		fmt.Sprintf("%s challenged you to %s", s.creatorName(ctx, sess.UserID), sport), m)
	s.changed(ctx, EventInsert, m)
	return m, nil
}

func (s *MatchService) CreateBroadcast(ctx context.Context, sess session.Session, req *match.CreateBroadcastRequest) (*match.MatchRequest, error) {
	sport, err := cleanSport(req.Sport)
	if err != nil {
		return nil, err
	}

	m, err := s.store.CreateMatch(ctx, &match.MatchRequest{
		CreatorID:     sess.UserID,
		Sport:         sport,
		Status:        match.StatusActive,
		ScheduledTime: req.ScheduledTime,
		LocationNote:  req.LocationNote,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create broadcast: %w", err)
	}

	metrics.MatchesCreated.WithLabelValues(string(match.KindBroadcast)).Inc()
	s.logger(sess, m.ID).WithField("sport", sport).Info("CreateBroadcast: broadcast opened")
	s.changed(ctx, EventInsert, m)
	return m, nil
}

func (s *MatchService) Accept(ctx context.Context, sess session.Session, matchID uuid.UUID) (*match.MatchRequest, error) {
	m, err := s.store.AcceptMatch(ctx, matchID, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrMatchConflict) {
			s.logger(sess, matchID).Info("Accept: lost race for match")
		}
		return nil, notFound(err, ErrMatchNotFound)
	}

	metrics.MatchTransitions.WithLabelValues("accept").Inc()
	s.logger(sess, m.ID).Info("Accept: match accepted")

	s.notify(ctx, m.CreatorID, notification.TypeChallengeAccepted, "Match accepted",
		fmt.Sprintf("%s accepted your %s match", s.creatorName(ctx, sess.UserID), m.Sport), m)
	s.changed(ctx, EventUpdate, m)
	return m, nil
}

func (s *MatchService) Decline(ctx context.Context, sess session.Session, matchID uuid.UUID) (*match.MatchRequest, error) {
	m, err := s.store.DeclineMatch(ctx, matchID, sess.UserID)
	if err != nil {
		return nil, notFound(err, ErrMatchNotFound)
	}

	metrics.MatchTransitions.WithLabelValues("decline").Inc()
	s.logger(sess, m.ID).Info("Decline: challenge declined")

	s.notify(ctx, m.CreatorID, notification.TypeChallengeDeclined, "Challenge declined",
		fmt.Sprintf("%s declined your %s challenge", s.creatorName(ctx, sess.UserID), m.Sport), m)
	s.changed(ctx, EventUpdate, m)
	return m, nil
}

func (s *MatchService) Cancel(ctx context.Context, sess session.Session, matchID uuid.UUID) error {
	m, err := s.store.CancelMatch(ctx, matchID, sess.UserID)
	if err != nil {
		return notFound(err, ErrMatchNotFound)
	}

	metrics.MatchTransitions.WithLabelValues("cancel").Inc()
	s.logger(sess, m.ID).WithField("status", m.Status).Info("Cancel: match removed")

	for _, id := range rules.Audience(m) {
		if id == sess.UserID {
			continue
		}
		s.notify(ctx, id, notification.TypeMatchCancelled, "Match cancelled",
			fmt.Sprintf("Your %s match was cancelled", m.Sport), m)
	}
	s.changed(ctx, EventDelete, m)
	return nil
}

// Get only shows a match to users involved in it, or to anyone while it is an open broadcast.
func (s *MatchService) Get(ctx context.Context, sess session.Session, matchID uuid.UUID) (*match.MatchWithResult, error) {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, notFound(err, ErrMatchNotFound)
	}
	if m.Status != match.StatusActive && !rules.IsInvolved(m, sess.UserID) {
		return nil, ErrNotParticipant
	}

	out := &match.MatchWithResult{MatchRequest: *m}
	if s.results != nil {
		r, err := s.results.GetResult(ctx, matchID)
		switch {
		case err == nil:
			out.Result = r
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("failed to load result: %w", err)
		}
	}
	return out, nil
}

func (s *MatchService) ListMine(ctx context.Context, sess session.Session) ([]*match.MatchWithResult, error) {
	out, err := s.store.ListMatchesForUser(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return out, nil
}

func (s *MatchService) ListOpenBroadcasts(ctx context.Context, sess session.Session, sport string) ([]*match.OpenBroadcast, error) {
	out, err := s.store.ListOpenBroadcasts(ctx, sess.UserID, normalizeSport(sport))
	if err != nil {
		return nil, fmt.Errorf("failed to list broadcasts: %w", err)
	}
	return out, nil
}

// resolveLocation turns a check-in request into a coordinate. A device that
// refused location access gets one attempt at IP-based lookup.
func (s *MatchService) resolveLocation(ctx context.Context, req *match.CheckInRequest, clientIP string) (match.Coordinate, string, error) {
	if req.LocationError != "" {
		locErr, err := geo.ParseLocationError(req.LocationError)
		if err != nil {
			return match.Coordinate{}, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if locErr.Code != geo.PermissionDenied || s.locator == nil || clientIP == "" {
			return match.Coordinate{}, "", locErr
		}
		c, err := s.locator.Locate(ctx, clientIP)
		if err != nil {
			logging.Log.WithError(err).Info("CheckIn: IP fallback failed")
			return match.Coordinate{}, "", locErr
		}
		return *c, "ip", nil
	}

	if req.Latitude == nil || req.Longitude == nil {
		return match.Coordinate{}, "", fmt.Errorf("%w: latitude and longitude are required", ErrInvalidInput)
	}
	c := match.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if err := geo.Validate(c); err != nil {
		return match.Coordinate{}, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return c, "device", nil
}

func (s *MatchService) CheckIn(ctx context.Context, sess session.Session, matchID uuid.UUID, req *match.CheckInRequest, clientIP string) (*match.CheckInOutcome, error) {
	log := s.logger(sess, matchID)

	coord, source, err := s.resolveLocation(ctx, req, clientIP)
	if err != nil {
		metrics.ProximityChecks.WithLabelValues("location_error").Inc()
		return nil, err
	}

	m, err := s.store.RecordCheckIn(ctx, matchID, sess.UserID, coord)
	if err != nil {
		return nil, notFound(err, ErrMatchNotFound)
	}

	out := &match.CheckInOutcome{Match: m, LocationSource: source}
	decision := geo.Evaluate(m.CreatorLocation, m.AcceptorLocation, s.radius)

	if decision.Waiting {
		out.Waiting = true
		out.Message = "Checked in. Waiting for your opponent to check in."
		metrics.ProximityChecks.WithLabelValues("waiting").Inc()
		log.Info("CheckIn: waiting for counterpart")
		s.changed(ctx, EventUpdate, m)
		return out, nil
	}

	distance := decision.DistanceMeters
	out.DistanceMeters = &distance

	if !decision.Verified {
		out.Message = fmt.Sprintf("You are %d m from your opponent. Move within %d m and check in again.", distance, int(s.radius))
		metrics.ProximityChecks.WithLabelValues("too_far").Inc()
		log.WithField("distance_m", distance).Info("CheckIn: players too far apart")
		s.notify(ctx, sess.UserID, notification.TypeProximityTooFar, "Too far from your opponent",
			fmt.Sprintf("You are %d m away. Get within %d m to verify the match.", distance, int(s.radius)), m)
		s.changed(ctx, EventUpdate, m)
		return out, nil
	}

	verified, err := s.store.MarkProximityVerified(ctx, matchID)
	switch {
	case errors.Is(err, ErrAlreadyVerified):
		// A concurrent check-in verified first; report the final state without re-notifying.
		current, getErr := s.store.GetMatch(ctx, matchID)
		if getErr != nil {
			return nil, notFound(getErr, ErrMatchNotFound)
		}
		out.Match = current
		out.Verified = true
		out.Message = "Proximity verified. Good luck!"
		return out, nil
	case err != nil:
		return nil, notFound(err, ErrMatchNotFound)
	}

	out.Match = verified
	out.Verified = true
	out.Message = "Proximity verified. Good luck!"
	metrics.ProximityChecks.WithLabelValues("verified").Inc()
	log.WithField("distance_m", distance).Info("CheckIn: proximity verified")

	for _, id := range rules.Audience(verified) {
		s.notify(ctx, id, notification.TypeProximityVerified, "Match verified",
			fmt.Sprintf("You are %d m apart. Your %s match is verified.", distance, verified.Sport), verified)
	}
	s.changed(ctx, EventUpdate, verified)
	return out, nil
}

// InviteQR renders a shareable deep link to the match as a PNG.
func (s *MatchService) InviteQR(ctx context.Context, sess session.Session, matchID uuid.UUID) (*InviteQRResponse, error) {
	m, err := s.Get(ctx, sess, matchID)
	if err != nil {
		return nil, err
	}

	link := InviteScheme + m.ID.String()
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}

	return &InviteQRResponse{
		MatchID:      m.ID,
		Link:         link,
		QrCodeBase64: base64.StdEncoding.EncodeToString(png),
	}, nil
}
