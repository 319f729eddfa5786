package memory

import (
	"context"

	"github.com/google/uuid"

	"pickYourSocksAPI/internal/types/post"
)

// UnknownAuthor names feed posts whose profile row is gone.
const UnknownAuthor = "unknown"

func clonePost(p *post.Post) *post.Post {
	c := *p
	if p.Caption != nil {
		v := *p.Caption
		c.Caption = &v
	}
	if p.MediaURL != nil {
		v := *p.MediaURL
		c.MediaURL = &v
	}
	return &c
}

func (s *Store) CreatePost(ctx context.Context, p *post.Post) (*post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := clonePost(p)
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = s.tick()
	s.posts = append(s.posts, c)
	return clonePost(c), nil
}

func (s *Store) ListFeed(ctx context.Context, sports []string, limit int) ([]*post.FeedPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(sports))
	for _, sp := range sports {
		wanted[sp] = true
	}

	out := []*post.FeedPost{}
	// posts is append-only, so walking backwards is newest first.
	for i := len(s.posts) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		p := s.posts[i]
		if !wanted[p.Sport] {
			continue
		}
		fp := &post.FeedPost{Post: *clonePost(p), Author: post.Author{ID: p.UserID, Name: UnknownAuthor}}
		if author, ok := s.profiles[p.UserID]; ok {
			fp.Author.Name = author.Name
			if author.ProfilePhoto != nil {
				v := *author.ProfilePhoto
				fp.Author.ProfilePhoto = &v
			}
		}
		out = append(out, fp)
	}
	return out, nil
}

func (s *Store) ListPostsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*post.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*post.Post{}
	for i := len(s.posts) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if s.posts[i].UserID == userID {
			out = append(out, clonePost(s.posts[i]))
		}
	}
	return out, nil
}
