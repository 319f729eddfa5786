package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/logging"
	"pickYourSocksAPI/internal/metrics"
	"pickYourSocksAPI/internal/session"
	"pickYourSocksAPI/internal/types/post"
)

const (
	maxCaptionChars  = 2000
	DefaultFeedLimit = 50
	MaxFeedLimit     = 100
)

type PostService struct {
	store     PostStore
	profiles  ProfileStore
	publicURL string
}

// NewPostService accepts media only under publicURL, the R2 public base the upload proxy returns.
func NewPostService(store PostStore, profiles ProfileStore, publicURL string) *PostService {
	return &PostService{store: store, profiles: profiles, publicURL: strings.TrimRight(publicURL, "/")}
}

func clampFeedLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

// checkMediaURL only admits files the upload proxy stored for this user.
func (s *PostService) checkMediaURL(userID uuid.UUID, raw string) error {
	if s.publicURL == "" {
		return ErrUploadsDisabled
	}
	prefix := s.publicURL + "/posts/" + userID.String() + "/"
	if !strings.HasPrefix(raw, prefix) || len(raw) == len(prefix) || strings.Contains(raw[len(prefix):], "..") {
		return ErrForeignMedia
	}
	return nil
}

func (s *PostService) Create(ctx context.Context, sess session.Session, req *post.CreatePostRequest) (*post.Post, error) {
	sport := normalizeSport(req.Sport)
	if sport == "" {
		return nil, fmt.Errorf("%w: sport is required", ErrInvalidInput)
	}

	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = post.MediaText
	}
	if !mediaType.Valid() {
		return nil, fmt.Errorf("%w: media_type must be image, video or text", ErrInvalidInput)
	}

	caption := strings.TrimSpace(req.Caption)
	if utf8.RuneCountInString(caption) > maxCaptionChars {
		return nil, fmt.Errorf("%w: caption is limited to %d characters", ErrInvalidInput, maxCaptionChars)
	}

	p := &post.Post{UserID: sess.UserID, Sport: sport, MediaType: mediaType}
	if caption != "" {
		p.Caption = &caption
	}

	mediaURL := strings.TrimSpace(req.MediaURL)
	switch {
	case mediaType == post.MediaText && caption == "":
		return nil, fmt.Errorf("%w: a text post needs a caption", ErrInvalidInput)
	case mediaType == post.MediaText && mediaURL != "":
		return nil, fmt.Errorf("%w: text posts cannot carry media", ErrInvalidInput)
	case mediaType != post.MediaText:
		if mediaURL == "" {
			return nil, fmt.Errorf("%w: media_url is required for %s posts", ErrInvalidInput, mediaType)
		}
		if err := s.checkMediaURL(sess.UserID, mediaURL); err != nil {
			return nil, err
		}
		p.MediaURL = &mediaURL
	}

	if _, err := s.profiles.EnsureProfile(ctx, sess.UserID, sess.Email); err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	created, err := s.store.CreatePost(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	metrics.PostsCreated.WithLabelValues(string(mediaType)).Inc()
	logging.WithUser(sess.UserID.String()).WithField("post_id", created.ID).Info("Post created")
	return created, nil
}

// Feed lists posts in the caller's sports; a non-empty sport narrows it to that one.
func (s *PostService) Feed(ctx context.Context, sess session.Session, sport string, limit int) ([]*post.FeedPost, error) {
	me, err := s.profiles.EnsureProfile(ctx, sess.UserID, sess.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	sports := me.Sports
	if sport = normalizeSport(sport); sport != "" && sport != "all" {
		sports = nil
		for _, sp := range me.Sports {
			if sp == sport {
				sports = []string{sport}
				break
			}
		}
	}
	if len(sports) == 0 {
		return []*post.FeedPost{}, nil
	}

	out, err := s.store.ListFeed(ctx, sports, clampFeedLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	return out, nil
}

// ListByUser returns one player's posts, newest first.
func (s *PostService) ListByUser(ctx context.Context, sess session.Session, userID uuid.UUID, limit int) ([]*post.Post, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	out, err := s.store.ListPostsByUser(ctx, userID, clampFeedLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return out, nil
}
