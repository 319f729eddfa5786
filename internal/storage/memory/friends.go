package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/storage"
	"pickYourSocksAPI/internal/types/friendship"
)

func (s *Store) CreateFriendRequest(ctx context.Context, requesterID, receiverID uuid.UUID) (*friendship.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairOf(requesterID, receiverID)
	if _, ok := s.friendships[key]; ok {
		return nil, storage.ErrAlreadyExists
	}
	f := &friendship.Friendship{
		ID:          uuid.New(),
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      friendship.FriendshipPending,
		CreatedAt:   s.tick(),
	}
	s.friendships[key] = f
	c := *f
	return &c, nil
}

func (s *Store) GetFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.friendships[pairOf(a, b)]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *f
	return &c, nil
}

func (s *Store) AcceptFriendRequest(ctx context.Context, requesterID, receiverID uuid.UUID) (*friendship.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.friendships[pairOf(requesterID, receiverID)]
	if !ok || f.RequesterID != requesterID || f.ReceiverID != receiverID || f.Status != friendship.FriendshipPending {
		return nil, storage.ErrNotFound
	}
	f.Status = friendship.FriendshipAccepted
	c := *f
	return &c, nil
}

func (s *Store) DeleteFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairOf(a, b)
	f, ok := s.friendships[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.friendships, key)
	return f, nil
}

func (s *Store) friendView(f *friendship.Friendship, other uuid.UUID) *friendship.Friend {
	fr := &friendship.Friend{ID: other, Since: f.CreatedAt}
	if p, ok := s.profiles[other]; ok {
		fr.Name = p.Name
		fr.ProfilePhoto = p.ProfilePhoto
		fr.Elo = p.Elo
		fr.PublicKey = p.PublicKey
	}
	return fr
}

func (s *Store) ListFriends(ctx context.Context, userID uuid.UUID) ([]*friendship.Friend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*friendship.Friend{}
	for _, f := range s.friendships {
		if f.Status == friendship.FriendshipAccepted && f.Involves(userID) {
			out = append(out, s.friendView(f, f.Other(userID)))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]*friendship.Friend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*friendship.Friend{}
	for _, f := range s.friendships {
		if f.Status == friendship.FriendshipPending && f.ReceiverID == userID {
			out = append(out, s.friendView(f, f.RequesterID))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Since.After(out[j].Since) })
	return out, nil
}
