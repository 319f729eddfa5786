package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/e2ee"
	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/types/profile"
)

const (
	maxNameChars = 80
	maxBioChars  = 500
)

type ProfileService struct {
	store ProfileStore
}

func NewProfileService(store ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// Me returns the caller's profile, creating the default row on first access.
func (s *ProfileService) Me(ctx context.Context, sess session.Session) (*profile.Profile, error) {
	p, err := s.store.EnsureProfile(ctx, sess.UserID, sess.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// Get returns another user's profile without private contact details.
func (s *ProfileService) Get(ctx context.Context, sess session.Session, id uuid.UUID) (*profile.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	if id != sess.UserID {
		p.Email = nil
	}
	return p, nil
}

func (s *ProfileService) Update(ctx context.Context, sess session.Session, req *profile.UpdateProfileRequest) (*profile.Profile, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || utf8.RuneCountInString(name) > maxNameChars {
			return nil, fmt.Errorf("%w: name must be 1-%d characters", ErrInvalidInput, maxNameChars)
		}
		req.Name = &name
	}
	if req.Bio != nil && utf8.RuneCountInString(*req.Bio) > maxBioChars {
		return nil, fmt.Errorf("%w: bio is limited to %d characters", ErrInvalidInput, maxBioChars)
	}
	if req.Sports != nil {
		seen := map[string]bool{}
		sports := []string{}
		for _, sp := range *req.Sports {
			sp = normalizeSport(sp)
			if sp == "" || seen[sp] {
				continue
			}
			seen[sp] = true
			sports = append(sports, sp)
		}
		req.Sports = &sports
	}

	if _, err := s.store.EnsureProfile(ctx, sess.UserID, sess.Email); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	p, err := s.store.UpdateProfile(ctx, sess.UserID, req)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	logging.WithUser(sess.UserID.String()).Info("UpdateProfile: profile updated")
	return p, nil
}

// SetPublicKey stores the caller's chat key. Peers encrypt to it from then on.
func (s *ProfileService) SetPublicKey(ctx context.Context, sess session.Session, publicKey string) error {
	publicKey = strings.TrimSpace(publicKey)
	if err := e2ee.ValidatePublicKey(publicKey); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if _, err := s.store.EnsureProfile(ctx, sess.UserID, sess.Email); err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if err := s.store.SetPublicKey(ctx, sess.UserID, publicKey); err != nil {
		return notFound(err, ErrProfileNotFound)
	}
	logging.WithUser(sess.UserID.String()).Info("SetPublicKey: chat key published")
	return nil
}

// PublishPublicKey lets a server-side KeyManager publish straight to the store.
func (s *ProfileService) PublishPublicKey(ctx context.Context, userID uuid.UUID, publicKey string) error {
	return s.SetPublicKey(ctx, session.Session{UserID: userID}, publicKey)
}

func (s *ProfileService) PublicKey(ctx context.Context, id uuid.UUID) (*profile.PublicKeyResponse, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	return &profile.PublicKeyResponse{UserID: p.ID, PublicKey: p.PublicKey}, nil
}
