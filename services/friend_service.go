package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/friendship"
	"pickYourSocksAPI/internal/types/notification"
)

type FriendService struct {
	store    FriendStore
	profiles ProfileStore
	notifier Notifier
}

func NewFriendService(store FriendStore, profiles ProfileStore, notifier Notifier) *FriendService {
	return &FriendService{store: store, profiles: profiles, notifier: notifier}
}

func parseUserID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid id", ErrInvalidInput, field)
	}
	return id, nil
}

func (s *FriendService) displayName(ctx context.Context, id uuid.UUID) string {
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil || p.Name == "" {
		return "Someone"
	}
	return p.Name
}

func (s *FriendService) Request(ctx context.Context, sess session.Session, req *friendship.AddFriendRequest) (*friendship.Friendship, error) {
	friendID, err := parseUserID(req.FriendID, "friend_id")
	if err != nil {
		return nil, err
	}
	if friendID == sess.UserID {
		return nil, fmt.Errorf("%w: cannot add yourself as a friend", ErrInvalidInput)
	}
	if _, err := s.profiles.GetProfile(ctx, friendID); err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}

	f, err := s.store.CreateFriendRequest(ctx, sess.UserID, friendID)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil, ErrFriendshipExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	logging.WithUser(sess.UserID.String()).WithField("friend_id", friendID).Info("FriendRequest: sent")
	if s.notifier != nil {
		s.notifier.Notify(ctx, friendID, notification.TypeFriendRequest, "New friend request",
			fmt.Sprintf("%s wants to be your friend", s.displayName(ctx, sess.UserID)),
			map[string]any{"user_id": sess.UserID.String()})
	}
	return f, nil
}

// Accept confirms a pending request that requesterID sent to the caller.
func (s *FriendService) Accept(ctx context.Context, sess session.Session, requesterID uuid.UUID) (*friendship.Friendship, error) {
	f, err := s.store.AcceptFriendRequest(ctx, requesterID, sess.UserID)
	if err != nil {
		return nil, notFound(err, ErrFriendRequestGone)
	}

	logging.WithUser(sess.UserID.String()).WithField("friend_id", requesterID).Info("FriendAccept: accepted")
	if s.notifier != nil {
		s.notifier.Notify(ctx, requesterID, notification.TypeFriendAccepted, "Friend request accepted",
			fmt.Sprintf("%s accepted your friend request", s.displayName(ctx, sess.UserID)),
			map[string]any{"user_id": sess.UserID.String()})
	}
	return f, nil
}

// Remove declines, withdraws or ends a friendship from either side.
func (s *FriendService) Remove(ctx context.Context, sess session.Session, otherID uuid.UUID) error {
	if _, err := s.store.DeleteFriendship(ctx, sess.UserID, otherID); err != nil {
		return notFound(err, ErrFriendRequestGone)
	}
	logging.WithUser(sess.UserID.String()).WithField("friend_id", otherID).Info("FriendRemove: removed")
	return nil
}

func (s *FriendService) List(ctx context.Context, sess session.Session) ([]*friendship.Friend, error) {
	return s.store.ListFriends(ctx, sess.UserID)
}

func (s *FriendService) Incoming(ctx context.Context, sess session.Session) ([]*friendship.Friend, error) {
	return s.store.ListIncomingRequests(ctx, sess.UserID)
}
