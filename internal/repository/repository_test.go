package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"piperblog/internal/config"
	"piperblog/internal/models"
	"piperblog/internal/utils"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}
	db, err := utils.InitDatabase(cfg, false, zerolog.Nop())
	if err != nil {
		t.Fatalf("InitDatabase() error: %v", err)
	}
	return db
}

func createPost(t *testing.T, repo *PostRepository, slug string, status models.PostStatus) *models.Post {
	t.Helper()
	p := &models.Post{Title: slug, Slug: slug, Status: status, Format: "markup"}
	if status == models.PostStatusPublished {
		now := time.Now()
		p.PublishedAt = &now
	}
	if err := repo.Create(context.Background(), p); err != nil {
		t.Fatalf("Create(%s) error: %v", slug, err)
	}
	return p
}

func TestPostSlugChecks(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))
	p := createPost(t, repo, "hello", models.PostStatusDraft)

	if exists, err := repo.CheckSlugExists(ctx, "hello"); err != nil || !exists {
		t.Errorf("CheckSlugExists(hello) = %v, %v", exists, err)
	}
	if exists, err := repo.CheckSlugExistsForOtherPost(ctx, "hello", p.ID); err != nil || exists {
		t.Errorf("CheckSlugExistsForOtherPost(hello, own id) = %v, %v", exists, err)
	}
}

func TestPublishedQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestDB(t))
	createPost(t, repo, "draft", models.PostStatusDraft)
	createPost(t, repo, "archived", models.PostStatusArchived)
	createPost(t, repo, "live-1", models.PostStatusPublished)
	createPost(t, repo, "live-2", models.PostStatusPublished)

	count, err := repo.CountPublished(ctx, nil)
	if err != nil || count != 2 {
		t.Fatalf("CountPublished() = %d, %v", count, err)
	}
	posts, err := repo.FindPublishedPage(ctx, 1, 1, nil)
	if err != nil || len(posts) != 1 {
		t.Fatalf("FindPublishedPage() = %v, %v", posts, err)
	}

	if _, err := repo.FindBySlug(ctx, "draft", true); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("FindBySlug(draft, published only) error = %v", err)
	}
	if _, err := repo.FindBySlug(ctx, "draft", false); err != nil {
		t.Errorf("FindBySlug(draft) error = %v", err)
	}

	all, err := repo.FindAllByAdmin(ctx, "live", "all")
	if err != nil || len(all) != 2 {
		t.Errorf("FindAllByAdmin(live) = %d posts, %v", len(all), err)
	}
}

func TestCommentDeleteReparentsReplies(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	p := createPost(t, posts, "p", models.PostStatusPublished)

	root := &models.Comment{PostID: p.ID, AuthorName: "a", Content: "root", Status: models.CommentStatusApproved}
	if err := comments.Create(ctx, root); err != nil {
		t.Fatal(err)
	}
	middle := &models.Comment{PostID: p.ID, ParentID: &root.ID, AuthorName: "b", Content: "middle", Status: models.CommentStatusApproved}
	if err := comments.Create(ctx, middle); err != nil {
		t.Fatal(err)
	}
	leaf := &models.Comment{PostID: p.ID, ParentID: &middle.ID, AuthorName: "c", Content: "leaf", Status: models.CommentStatusApproved}
	if err := comments.Create(ctx, leaf); err != nil {
		t.Fatal(err)
	}

	if err := comments.Delete(ctx, middle.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	got, err := comments.FindByID(ctx, leaf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ParentID == nil || *got.ParentID != root.ID {
		t.Errorf("leaf parent = %v, want %d", got.ParentID, root.ID)
	}
	if err := comments.Delete(ctx, middle.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second Delete() error = %v, want ErrRecordNotFound", err)
	}
}

func TestCommentUpdateStatusUnchangedIsNotMissing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	p := createPost(t, posts, "p", models.PostStatusPublished)

	c := &models.Comment{PostID: p.ID, AuthorName: "a", Content: "hi", Status: models.CommentStatusApproved}
	if err := comments.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := comments.UpdateStatus(ctx, c.ID, models.CommentStatusApproved); err != nil {
			t.Fatalf("UpdateStatus() run %d error: %v", i+1, err)
		}
	}
	if err := comments.UpdateStatus(ctx, 9999, models.CommentStatusApproved); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("unknown comment error = %v, want ErrRecordNotFound", err)
	}
}

func TestDeleteSpamBefore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)
	p := createPost(t, posts, "p", models.PostStatusPublished)

	old := &models.Comment{PostID: p.ID, AuthorName: "x", Content: "old spam", Status: models.CommentStatusSpam, CreatedAt: time.Now().AddDate(0, 0, -40)}
	fresh := &models.Comment{PostID: p.ID, AuthorName: "x", Content: "new spam", Status: models.CommentStatusSpam}
	ok := &models.Comment{PostID: p.ID, AuthorName: "x", Content: "old but fine", Status: models.CommentStatusApproved, CreatedAt: time.Now().AddDate(0, 0, -40)}
	for _, c := range []*models.Comment{old, fresh, ok} {
		if err := comments.Create(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	n, err := comments.DeleteSpamBefore(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil || n != 1 {
		t.Fatalf("DeleteSpamBefore() = %d, %v; want 1", n, err)
	}
	total, _ := comments.Count(ctx, "")
	if total != 2 {
		t.Errorf("remaining comments = %d, want 2", total)
	}
}

func TestCategoryCountsAndClear(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := NewPostRepository(db)
	categories := NewCategoryRepository(db)

	cat := &models.Category{Name: "News", Slug: "news"}
	if err := categories.Create(ctx, cat); err != nil {
		t.Fatal(err)
	}
	p := createPost(t, posts, "p", models.PostStatusDraft)
	if err := posts.UpdateFields(ctx, p.ID, map[string]interface{}{"category_id": cat.ID}); err != nil {
		t.Fatal(err)
	}

	rows, err := categories.FindAllWithCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int64{}
	for _, r := range rows {
		counts[r.Slug] = r.PostCount
	}
	if counts["news"] != 1 || counts["general"] != 0 {
		t.Errorf("counts = %v", counts)
	}

	if err := posts.ClearCategory(ctx, cat.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := posts.FindByID(ctx, p.ID)
	if got.CategoryID != nil {
		t.Errorf("category not cleared: %v", *got.CategoryID)
	}
}

func TestUserUpsert(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	if err := users.Upsert(ctx, &models.User{Username: "admin", PasswordHash: "one", Role: models.RoleAdmin}); err != nil {
		t.Fatal(err)
	}
	if err := users.Upsert(ctx, &models.User{Username: "admin", PasswordHash: "two", Role: models.RoleAdmin}); err != nil {
		t.Fatal(err)
	}
	u, err := users.FindByUsername(ctx, "admin")
	if err != nil || u.PasswordHash != "two" {
		t.Fatalf("FindByUsername() = %+v, %v", u, err)
	}
	if n, _ := users.CountByRole(ctx, models.RoleAdmin); n != 1 {
		t.Errorf("CountByRole(admin) = %d", n)
	}
}
