package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"piperblog/internal/metrics"
	"piperblog/internal/models"
	"piperblog/internal/repository"
	"piperblog/internal/sanitizer"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	maxCommentRunes = 5000
	maxNameRunes    = 100
	spamRetention   = 30 * 24 * time.Hour
)

// Challenge is the arithmetic question shown above the comment form.
type Challenge struct {
	A int
	B int
}

// NewChallenge draws two operands between 1 and 10.
func NewChallenge() Challenge {
	return Challenge{A: rand.Intn(10) + 1, B: rand.Intn(10) + 1}
}

func (c Challenge) Valid() bool {
	return c.A > 0 && c.B > 0
}

// Check compares a submitted answer against the expected sum.
func (c Challenge) Check(answer string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	return err == nil && c.Valid() && n == c.A+c.B
}

// CommentInput is a public comment submission.
type CommentInput struct {
	PostID    uint
	ParentID  *uint
	Name      string
	Email     string
	Content   string
	Answer    string
	Challenge Challenge
}

type CommentService struct {
	repo      *repository.CommentRepository
	posts     *repository.PostRepository
	sanitizer *sanitizer.Sanitizer
	settings  *SettingService
	mailer    *MailService
	log       zerolog.Logger
	now       func() time.Time
}

func NewCommentService(repo *repository.CommentRepository, posts *repository.PostRepository, san *sanitizer.Sanitizer, settings *SettingService, mailer *MailService, log zerolog.Logger) *CommentService {
	return &CommentService{
		repo:      repo,
		posts:     posts,
		sanitizer: san,
		settings:  settings,
		mailer:    mailer,
		log:       log.With().Str("component", "comments").Logger(),
		now:       time.Now,
	}
}

// Submit validates a public comment and stores it as pending. The spam check
// runs first so a wrong answer never reaches the database.
func (s *CommentService) Submit(ctx context.Context, in CommentInput) (*models.Comment, error) {
	if !in.Challenge.Check(in.Answer) {
		metrics.CommentsSubmitted.WithLabelValues("spam_check_failed").Inc()
		return nil, ErrSpamCheckFailed
	}

	comment, post, err := s.validate(ctx, in)
	if err != nil {
		metrics.CommentsSubmitted.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}
	metrics.CommentsSubmitted.WithLabelValues("accepted").Inc()
	s.log.Info().Uint("comment_id", comment.ID).Uint("post_id", post.ID).Msg("comment awaiting moderation")

	if s.mailer != nil {
		s.mailer.NotifyNewComment(ctx, post, comment)
	}
	return comment, nil
}

func (s *CommentService) validate(ctx context.Context, in CommentInput) (*models.Comment, *models.Post, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameRunes {
		return nil, nil, fmt.Errorf("%w: name", ErrCommentTooLong)
	}
	body := strings.TrimSpace(in.Content)
	if body == "" {
		return nil, nil, ErrContentRequired
	}
	if utf8.RuneCountInString(body) > maxCommentRunes {
		return nil, nil, ErrCommentTooLong
	}
	email := strings.TrimSpace(in.Email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return nil, nil, ErrInvalidEmail
		}
	}

	post, err := s.posts.FindByID(ctx, in.PostID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrPostNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if !post.IsPublished() {
		return nil, nil, ErrCommentsNotAllowed
	}

	if in.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *in.ParentID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidParent
		}
		if err != nil {
			return nil, nil, err
		}
		if parent.PostID != post.ID || parent.Status != models.CommentStatusApproved {
			return nil, nil, ErrInvalidParent
		}
	}

	return &models.Comment{
		PostID:      post.ID,
		ParentID:    in.ParentID,
		AuthorName:  name,
		AuthorEmail: email,
		Content:     s.sanitizer.Markup(body),
		Status:      models.CommentStatusPending,
	}, post, nil
}

// Thread returns the approved comments of a post as a tree. Top-level
// comments are newest first, replies keep conversation order.
func (s *CommentService) Thread(ctx context.Context, postID uint) ([]*models.Comment, int, error) {
	comments, err := s.repo.FindByPost(ctx, postID, models.CommentStatusApproved)
	if err != nil {
		return nil, 0, err
	}
	return BuildThread(comments), len(comments), nil
}

// BuildThread links comments (in creation order) to their parents. A reply
// whose parent is not in the list is shown at the top level.
func BuildThread(comments []*models.Comment) []*models.Comment {
	byID := make(map[uint]*models.Comment, len(comments))
	for _, c := range comments {
		c.Replies = nil
		byID[c.ID] = c
	}
	var roots []*models.Comment
	for _, c := range comments {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok && parent != c {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	for i, j := 0, len(roots)-1; i < j; i, j = i+1, j-1 {
		roots[i], roots[j] = roots[j], roots[i]
	}
	return roots
}

// Moderate approves, marks as spam or deletes a comment.
func (s *CommentService) Moderate(ctx context.Context, id uint, action string) error {
	var err error
	switch action {
	case "approve":
		err = s.repo.UpdateStatus(ctx, id, models.CommentStatusApproved)
	case "spam":
		err = s.repo.UpdateStatus(ctx, id, models.CommentStatusSpam)
	case "delete":
		err = s.repo.Delete(ctx, id)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCommentNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info().Uint("comment_id", id).Str("action", action).Msg("comment moderated")

	if action != "delete" && s.settings.Site().System.AutoCleanup {
		s.purgeSpam(ctx)
	}
	return nil
}

// PurgeSpam deletes spam comments older than the retention period.
func (s *CommentService) PurgeSpam(ctx context.Context) (int64, error) {
	return s.repo.DeleteSpamBefore(ctx, s.now().Add(-spamRetention))
}

// purgeSpam runs PurgeSpam after moderation. Failures are logged only.
func (s *CommentService) purgeSpam(ctx context.Context) {
	n, err := s.PurgeSpam(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("spam cleanup failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("old spam purged")
	}
}

func (s *CommentService) ListForAdmin(ctx context.Context, status string) ([]models.Comment, error) {
	if status != "" && status != "all" && !models.CommentStatus(status).Valid() {
		return nil, ErrInvalidStatus
	}
	return s.repo.FindAllByAdmin(ctx, status)
}
