package services

import (
	"context"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/types/friendship"
	"pickYourSocksAPI/internal/types/match"
	"pickYourSocksAPI/internal/types/message"
	"pickYourSocksAPI/internal/types/notification"
	"pickYourSocksAPI/internal/types/post"
	"pickYourSocksAPI/internal/types/profile"
)

// MatchStore applies lifecycle transitions as conditional writes. A rejected
// write returns the rule error from internal/match; unknown ids return
// storage.ErrNotFound.
type MatchStore interface {
	CreateMatch(ctx context.Context, m *match.MatchRequest) (*match.MatchRequest, error)
	GetMatch(ctx context.Context, id uuid.UUID) (*match.MatchRequest, error)
	ListMatchesForUser(ctx context.Context, userID uuid.UUID) ([]*match.MatchWithResult, error)
	ListOpenBroadcasts(ctx context.Context, excludeUserID uuid.UUID, sport string) ([]*match.OpenBroadcast, error)
	AcceptMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error)
	DeclineMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error)
	// CancelMatch deletes the row and returns it as it was.
	CancelMatch(ctx context.Context, id, userID uuid.UUID) (*match.MatchRequest, error)
	RecordCheckIn(ctx context.Context, id, userID uuid.UUID, c match.Coordinate) (*match.MatchRequest, error)
	MarkProximityVerified(ctx context.Context, id uuid.UUID) (*match.MatchRequest, error)
}

// ResultStore keeps at most one result row per match.
type ResultStore interface {
	SubmitClaim(ctx context.Context, matchID, userID uuid.UUID, rt match.ResultType, score string) (*match.MatchResult, *match.MatchRequest, error)
	GetResult(ctx context.Context, matchID uuid.UUID) (*match.MatchResult, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	GetProfileByClerkID(ctx context.Context, clerkID string) (*profile.Profile, error)
	// EnsureProfile creates a default profile for a new account and is a no-op otherwise.
	EnsureProfile(ctx context.Context, id uuid.UUID, email string) (*profile.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *profile.UpdateProfileRequest) (*profile.Profile, error)
	SetPublicKey(ctx context.Context, id uuid.UUID, publicKey string) error
	RadarCandidates(ctx context.Context, userID uuid.UUID, sport string) ([]*profile.RadarCandidate, error)
}

type FriendStore interface {
	// CreateFriendRequest returns storage.ErrAlreadyExists when any row exists for the pair.
	CreateFriendRequest(ctx context.Context, requesterID, receiverID uuid.UUID) (*friendship.Friendship, error)
	GetFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error)
	// AcceptFriendRequest only succeeds for the receiver of a pending request.
	AcceptFriendRequest(ctx context.Context, requesterID, receiverID uuid.UUID) (*friendship.Friendship, error)
	DeleteFriendship(ctx context.Context, a, b uuid.UUID) (*friendship.Friendship, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]*friendship.Friend, error)
	ListIncomingRequests(ctx context.Context, userID uuid.UUID) ([]*friendship.Friend, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m *message.Message) (*message.Message, error)
	// ListConversation returns both directions between a and b, oldest first.
	ListConversation(ctx context.Context, a, b uuid.UUID, limit int) ([]*message.Message, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *notification.Notification) (*notification.Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int, unreadOnly bool) ([]*notification.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	SetNotificationStatus(ctx context.Context, id uuid.UUID, status notification.NotificationStatus, reason string) error
	RegisterDevice(ctx context.Context, userID uuid.UUID, token notification.DeviceToken) error
	ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, p *post.Post) (*post.Post, error)
	// ListFeed returns posts in any of sports joined with their author, newest first.
	ListFeed(ctx context.Context, sports []string, limit int) ([]*post.FeedPost, error)
	ListPostsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*post.Post, error)
}

// Store is everything a storage driver provides.
type Store interface {
	MatchStore
	ResultStore
	ProfileStore
	FriendStore
	MessageStore
	NotificationStore
	PostStore
	Ping(ctx context.Context) error
	Close()
}
