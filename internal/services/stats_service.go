package services

import (
	"context"

	"piperblog/internal/models"
	"piperblog/internal/repository"

	"github.com/rs/zerolog"
)

const latestPostsLimit = 8

// DashboardStats feeds the admin dashboard.
type DashboardStats struct {
	Posts           int64
	Published       int64
	Drafts          int64
	Archived        int64
	Comments        int64
	PendingComments int64
	Categories      int64
	Users           int64
	LatestPosts     []models.Post
}

type StatsService struct {
	posts      *repository.PostRepository
	comments   *repository.CommentRepository
	categories *repository.CategoryRepository
	users      *repository.UserRepository
	log        zerolog.Logger
}

func NewStatsService(posts *repository.PostRepository, comments *repository.CommentRepository, categories *repository.CategoryRepository, users *repository.UserRepository, log zerolog.Logger) *StatsService {
	return &StatsService{
		posts:      posts,
		comments:   comments,
		categories: categories,
		users:      users,
		log:        log.With().Str("component", "stats").Logger(),
	}
}

// Dashboard never fails: a query error leaves that figure at zero and is logged.
func (s *StatsService) Dashboard(ctx context.Context) DashboardStats {
	var st DashboardStats
	count := func(name string, fn func() (int64, error)) int64 {
		n, err := fn()
		if err != nil {
			s.log.Warn().Err(err).Str("stat", name).Msg("dashboard query failed")
			return 0
		}
		return n
	}

	st.Posts = count("posts", func() (int64, error) { return s.posts.Count(ctx, "") })
	st.Published = count("published", func() (int64, error) { return s.posts.Count(ctx, models.PostStatusPublished) })
	st.Drafts = count("drafts", func() (int64, error) { return s.posts.Count(ctx, models.PostStatusDraft) })
	st.Archived = count("archived", func() (int64, error) { return s.posts.Count(ctx, models.PostStatusArchived) })
	st.Comments = count("comments", func() (int64, error) { return s.comments.Count(ctx, "") })
	st.PendingComments = count("pending", func() (int64, error) { return s.comments.Count(ctx, models.CommentStatusPending) })
	st.Categories = count("categories", func() (int64, error) { return s.categories.Count(ctx) })
	st.Users = count("users", func() (int64, error) { return s.users.CountByRole(ctx, "") })

	latest, err := s.posts.FindLatest(ctx, latestPostsLimit)
	if err != nil {
		s.log.Warn().Err(err).Msg("latest posts query failed")
		latest = nil
	}
	st.LatestPosts = latest
	return st
}
