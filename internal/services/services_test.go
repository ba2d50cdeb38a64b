package services

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"piperblog/internal/config"
	"piperblog/internal/i18n"
	"piperblog/internal/models"
	"piperblog/internal/repository"
	"piperblog/internal/sanitizer"
	"piperblog/internal/storage"
	"piperblog/internal/utils"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/ini.v1"
	"gorm.io/gorm"
)

type testEnv struct {
	db         *gorm.DB
	dir        string
	settings   *SettingService
	posts      *PostService
	comments   *CommentService
	categories *CategoryService
	files      *FileService
	auth       *AuthService
	stats      *StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	log := zerolog.Nop()

	db, err := utils.InitDatabase(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(dir, "test.db")}, false, log)
	if err != nil {
		t.Fatalf("InitDatabase() error: %v", err)
	}
	store, err := config.NewStore(filepath.Join(dir, "config.ini"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	bundle := i18n.NewBundle()
	for locale, src := range map[string]string{
		"en": "[meta]\nname = English\n",
		"de": "[meta]\nname = Deutsch\n",
	} {
		f, err := ini.Load([]byte(src))
		if err != nil {
			t.Fatalf("ini.Load() error: %v", err)
		}
		bundle.AddFile(locale, f)
	}
	local, err := storage.NewLocal(filepath.Join(dir, "uploads"), "/uploads")
	if err != nil {
		t.Fatalf("NewLocal() error: %v", err)
	}

	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	san := sanitizer.New()

	env := &testEnv{db: db, dir: dir}
	env.settings = NewSettingService(store, bundle, log)
	env.files = NewFileService(local, env.settings, log)
	env.posts = NewPostService(postRepo, categoryRepo, san, env.settings, env.files, log)
	env.comments = NewCommentService(commentRepo, postRepo, san, env.settings, nil, log)
	env.categories = NewCategoryService(categoryRepo, postRepo, log)
	env.auth = NewAuthService(userRepo, filepath.Join(dir, "admin.ini"), log)
	env.stats = NewStatsService(postRepo, commentRepo, categoryRepo, userRepo, log)
	return env
}

func (e *testEnv) publishedPost(t *testing.T, title string) *models.Post {
	t.Helper()
	ctx := context.Background()
	post, err := e.posts.CreateDraft(ctx, title, 0)
	if err != nil {
		t.Fatalf("CreateDraft() error: %v", err)
	}
	if err := e.posts.ApplyAction(ctx, post.ID, "publish"); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	post, err = e.posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	return post
}

func TestCreateDraftGeneratesUniqueSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	want := []string{"hello-world", "hello-world-1", "hello-world-2"}
	for _, w := range want {
		post, err := env.posts.CreateDraft(ctx, "Hello World", 0)
		if err != nil {
			t.Fatalf("CreateDraft() error: %v", err)
		}
		if post.Slug != w {
			t.Errorf("slug = %q, want %q", post.Slug, w)
		}
		if post.Status != models.PostStatusDraft {
			t.Errorf("status = %q, want draft", post.Status)
		}
	}

	if _, err := env.posts.CreateDraft(ctx, "   ", 0); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("CreateDraft(blank) error = %v, want ErrTitleRequired", err)
	}
}

func TestSaveSanitizesAndReslugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post, _ := env.posts.CreateDraft(ctx, "First", 0)
	if _, err := env.posts.CreateDraft(ctx, "Second", 0); err != nil {
		t.Fatal(err)
	}

	saved, err := env.posts.Save(ctx, post.ID, PostInput{
		Title:  "Second",
		Source: "[b]hi[/b]<script>alert(1)</script>",
		Format: "markup",
		Status: models.PostStatusPublished,
	})
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if saved.Slug != "second-1" {
		t.Errorf("slug = %q, want second-1", saved.Slug)
	}
	if !strings.Contains(saved.Content, "<strong>hi</strong>") || strings.Contains(saved.Content, "<script") {
		t.Errorf("content = %q", saved.Content)
	}
	if saved.PublishedAt == nil {
		t.Error("PublishedAt not set on publish")
	}

	cases := []struct {
		in   PostInput
		want error
	}{
		{PostInput{Title: ""}, ErrTitleRequired},
		{PostInput{Title: "x", Format: "bbcode"}, ErrInvalidFormat},
		{PostInput{Title: "x", Status: "deleted"}, ErrInvalidStatus},
		{PostInput{Title: "x", HeroImage: "javascript:alert(1)"}, ErrInvalidHeroImage},
	}
	for _, tc := range cases {
		if _, err := env.posts.Save(ctx, post.ID, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("Save(%+v) error = %v, want %v", tc.in, err, tc.want)
		}
	}
	if _, err := env.posts.Save(ctx, 9999, PostInput{Title: "x"}); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("Save(missing) error = %v, want ErrPostNotFound", err)
	}
}

func TestApplyActionTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.publishedPost(t, "Lifecycle")

	if _, err := env.posts.GetPublishedBySlug(ctx, post.Slug); err != nil {
		t.Fatalf("published post not visible: %v", err)
	}
	if err := env.posts.ApplyAction(ctx, post.ID, "unpublish"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.posts.GetPublishedBySlug(ctx, post.Slug); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("draft visible publicly, error = %v", err)
	}
	if err := env.posts.ApplyAction(ctx, post.ID, "explode"); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("ApplyAction(explode) error = %v, want ErrInvalidAction", err)
	}
}

func TestDeleteSoftAndHard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post := env.publishedPost(t, "Soft")
	comment := &models.Comment{PostID: post.ID, AuthorName: "a", Content: "c", Status: models.CommentStatusApproved}
	if err := env.db.Create(comment).Error; err != nil {
		t.Fatal(err)
	}

	archived, err := env.posts.Delete(ctx, post.ID)
	if err != nil || !archived {
		t.Fatalf("soft Delete() = %v, %v; want archived", archived, err)
	}
	got, err := env.posts.GetByID(ctx, post.ID)
	if err != nil {
		t.Fatalf("post row removed in soft mode: %v", err)
	}
	if got.Status != models.PostStatusArchived {
		t.Errorf("status = %q, want archived", got.Status)
	}
	var n int64
	env.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&n)
	if n != 1 {
		t.Errorf("comments after soft delete = %d, want 1", n)
	}

	if err := env.settings.ApplyTab("system", url.Values{}); err != nil {
		t.Fatalf("ApplyTab(system) error: %v", err)
	}
	archived, err = env.posts.Delete(ctx, post.ID)
	if err != nil || archived {
		t.Fatalf("hard Delete() = %v, %v; want removed", archived, err)
	}
	if _, err := env.posts.GetByID(ctx, post.ID); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("post still present after hard delete: %v", err)
	}
	env.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&n)
	if n != 0 {
		t.Errorf("comments after hard delete = %d, want 0", n)
	}
}

func TestHardDeleteRemovesHeroImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.settings.ApplyTab("system", url.Values{"delete_files": {"on"}}); err != nil {
		t.Fatal(err)
	}
	name, err := env.files.Upload(ctx, "notes.txt", strings.NewReader("hello"), 5)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	post, _ := env.posts.CreateDraft(ctx, "With hero", 0)
	if _, err := env.posts.Save(ctx, post.ID, PostInput{Title: "With hero", HeroImage: env.files.URL(name)}); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := env.posts.Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(env.dir, "uploads", name)); !os.IsNotExist(err) {
		t.Errorf("hero file still exists: %v", err)
	}
}

func TestSubmitCommentWithWrongAnswerIsNotPersisted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.publishedPost(t, "Discussed")

	_, err := env.comments.Submit(ctx, CommentInput{
		PostID:    post.ID,
		Name:      "Bot",
		Content:   "buy now",
		Answer:    "11",
		Challenge: Challenge{A: 2, B: 3},
	})
	if !errors.Is(err, ErrSpamCheckFailed) {
		t.Fatalf("Submit() error = %v, want ErrSpamCheckFailed", err)
	}
	var n int64
	env.db.Model(&models.Comment{}).Count(&n)
	if n != 0 {
		t.Errorf("comments stored = %d, want 0", n)
	}
}

func TestSubmitComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.publishedPost(t, "Discussed")
	other := env.publishedPost(t, "Elsewhere")
	ch := Challenge{A: 4, B: 4}

	c, err := env.comments.Submit(ctx, CommentInput{
		PostID: post.ID, Name: "Ann", Email: "ann@example.com",
		Content: "[b]nice[/b] <script>x</script>", Answer: " 8 ", Challenge: ch,
	})
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if c.Status != models.CommentStatusPending {
		t.Errorf("status = %q, want pending", c.Status)
	}
	if !strings.Contains(c.Content, "<strong>nice</strong>") || strings.Contains(c.Content, "<script") {
		t.Errorf("content = %q", c.Content)
	}

	// Pending comments cannot be replied to.
	_, err = env.comments.Submit(ctx, CommentInput{PostID: post.ID, ParentID: &c.ID, Name: "Bob", Content: "re", Answer: "8", Challenge: ch})
	if !errors.Is(err, ErrInvalidParent) {
		t.Errorf("reply to pending error = %v, want ErrInvalidParent", err)
	}
	if err := env.comments.Moderate(ctx, c.ID, "approve"); err != nil {
		t.Fatal(err)
	}
	_, err = env.comments.Submit(ctx, CommentInput{PostID: other.ID, ParentID: &c.ID, Name: "Bob", Content: "re", Answer: "8", Challenge: ch})
	if !errors.Is(err, ErrInvalidParent) {
		t.Errorf("cross-post reply error = %v, want ErrInvalidParent", err)
	}

	cases := []struct {
		in   CommentInput
		want error
	}{
		{CommentInput{PostID: post.ID, Content: "x"}, ErrNameRequired},
		{CommentInput{PostID: post.ID, Name: "a"}, ErrContentRequired},
		{CommentInput{PostID: post.ID, Name: "a", Content: strings.Repeat("x", maxCommentRunes+1)}, ErrCommentTooLong},
		{CommentInput{PostID: post.ID, Name: "a", Content: "x", Email: "not-an-email"}, ErrInvalidEmail},
		{CommentInput{PostID: 9999, Name: "a", Content: "x"}, ErrPostNotFound},
	}
	for _, tc := range cases {
		tc.in.Answer, tc.in.Challenge = "8", ch
		if _, err := env.comments.Submit(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("Submit(%s) error = %v, want %v", tc.want, err, tc.want)
		}
	}

	draft, _ := env.posts.CreateDraft(ctx, "Draft", 0)
	_, err = env.comments.Submit(ctx, CommentInput{PostID: draft.ID, Name: "a", Content: "x", Answer: "8", Challenge: ch})
	if !errors.Is(err, ErrCommentsNotAllowed) {
		t.Errorf("comment on draft error = %v, want ErrCommentsNotAllowed", err)
	}
}

func TestBuildThread(t *testing.T) {
	id := func(n uint) *uint { return &n }
	comments := []*models.Comment{
		{ID: 1},
		{ID: 2, ParentID: id(1)},
		{ID: 3},
		{ID: 4, ParentID: id(1)},
		{ID: 5, ParentID: id(2)},
		{ID: 6, ParentID: id(42)},
	}
	roots := BuildThread(comments)

	var rootIDs []uint
	for _, r := range roots {
		rootIDs = append(rootIDs, r.ID)
	}
	if want := []uint{6, 3, 1}; len(rootIDs) != len(want) || rootIDs[0] != 6 || rootIDs[1] != 3 || rootIDs[2] != 1 {
		t.Fatalf("roots = %v, want %v", rootIDs, want)
	}
	first := roots[2]
	if len(first.Replies) != 2 || first.Replies[0].ID != 2 || first.Replies[1].ID != 4 {
		t.Errorf("replies of 1 = %+v", first.Replies)
	}
	if len(first.Replies[0].Replies) != 1 || first.Replies[0].Replies[0].ID != 5 {
		t.Errorf("replies of 2 = %+v", first.Replies[0].Replies)
	}
}

func TestThreadShowsApprovedOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.publishedPost(t, "Thread")
	for _, st := range []models.CommentStatus{models.CommentStatusApproved, models.CommentStatusPending, models.CommentStatusSpam} {
		env.db.Create(&models.Comment{PostID: post.ID, AuthorName: "x", Content: "y", Status: st})
	}
	roots, total, err := env.comments.Thread(ctx, post.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(roots) != 1 {
		t.Errorf("Thread() = %d roots, total %d; want 1, 1", len(roots), total)
	}
}

func TestModerate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.publishedPost(t, "Moderated")
	c := &models.Comment{PostID: post.ID, AuthorName: "x", Content: "y", Status: models.CommentStatusPending}
	env.db.Create(c)

	if err := env.comments.Moderate(ctx, c.ID, "spam"); err != nil {
		t.Fatal(err)
	}
	var got models.Comment
	env.db.First(&got, c.ID)
	if got.Status != models.CommentStatusSpam {
		t.Errorf("status = %q, want spam", got.Status)
	}
	if err := env.comments.Moderate(ctx, c.ID, "bless"); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Moderate(bless) error = %v", err)
	}
	if err := env.comments.Moderate(ctx, c.ID, "delete"); err != nil {
		t.Fatal(err)
	}
	if err := env.comments.Moderate(ctx, c.ID, "approve"); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("Moderate(deleted) error = %v, want ErrCommentNotFound", err)
	}
}

func TestChallenge(t *testing.T) {
	for i := 0; i < 50; i++ {
		c := NewChallenge()
		if c.A < 1 || c.A > 10 || c.B < 1 || c.B > 10 {
			t.Fatalf("NewChallenge() = %+v out of range", c)
		}
	}
	if (Challenge{}).Check("0") {
		t.Error("zero challenge must never pass")
	}
	if !(Challenge{A: 1, B: 2}).Check("3") || (Challenge{A: 1, B: 2}).Check("three") {
		t.Error("Check() mismatch")
	}
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat, err := env.categories.Create(ctx, "Go Tips")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if cat.Slug != "go-tips" {
		t.Errorf("slug = %q", cat.Slug)
	}
	if _, err := env.categories.Create(ctx, "Go Tips"); !errors.Is(err, ErrCategoryExists) {
		t.Errorf("duplicate error = %v", err)
	}
	if _, err := env.categories.Create(ctx, " "); !errors.Is(err, ErrCategoryNameRequired) {
		t.Errorf("blank error = %v", err)
	}

	post, _ := env.posts.CreateDraft(ctx, "Categorised", 0)
	if _, err := env.posts.Save(ctx, post.ID, PostInput{Title: "Categorised", CategoryID: &cat.ID}); err != nil {
		t.Fatal(err)
	}
	if err := env.categories.Rename(ctx, cat.ID, "Golang"); err != nil {
		t.Fatalf("Rename() error: %v", err)
	}
	if _, err := env.categories.FindBySlug(ctx, "golang"); err != nil {
		t.Errorf("renamed slug missing: %v", err)
	}
	if err := env.categories.Delete(ctx, cat.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	got, _ := env.posts.GetByID(ctx, post.ID)
	if got.CategoryID != nil {
		t.Errorf("post still references deleted category %d", *got.CategoryID)
	}
	if err := env.categories.Delete(ctx, cat.ID); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func writeAdminINI(t *testing.T, path, user, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	content := "[admin]\nusername = " + user + "\npassword_hash = " + string(hash) + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestAuthenticateSourceOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.auth.CreateUser(ctx, "root", "", "db-password", models.RoleAdmin); err != nil {
		t.Fatal(err)
	}
	writeAdminINI(t, filepath.Join(env.dir, "admin.ini"), "root", "file-password")

	id, err := env.auth.Authenticate(ctx, "root", "file-password")
	if err != nil || id.Source != SourceFile {
		t.Fatalf("file admin login = %+v, %v", id, err)
	}
	id, err = env.auth.Authenticate(ctx, "root", "db-password")
	if err != nil || id.Source != SourceDB || id.ID == 0 {
		t.Fatalf("db user login = %+v, %v", id, err)
	}

	for _, creds := range [][2]string{{"root", "wrong"}, {"nobody", "file-password"}, {"", ""}} {
		if _, err := env.auth.Authenticate(ctx, creds[0], creds[1]); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate(%q) error = %v, want ErrInvalidCredentials", creds[0], err)
		}
	}
}

func TestSetup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	needed, err := env.auth.NeedsSetup(ctx)
	if err != nil || !needed {
		t.Fatalf("NeedsSetup() = %v, %v; want true", needed, err)
	}
	if _, err := env.auth.Setup(ctx, "short", "short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("short password error = %v", err)
	}
	if _, err := env.auth.Setup(ctx, "long-enough", "different!"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("mismatch error = %v", err)
	}
	id, err := env.auth.Setup(ctx, "long-enough", "long-enough")
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}
	if id.Username != "admin" || id.Role != models.RoleAdmin || id.Source != SourceSetup {
		t.Errorf("identity = %+v", id)
	}
	if _, err := env.auth.Setup(ctx, "another-one", "another-one"); !errors.Is(err, ErrSetupComplete) {
		t.Errorf("second Setup() error = %v, want ErrSetupComplete", err)
	}
	if _, err := env.auth.Authenticate(ctx, "admin", "long-enough"); err != nil {
		t.Errorf("login after setup: %v", err)
	}
}

func TestSetupKeepsExistingNonAdminUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if err := env.auth.CreateUser(ctx, "admin", "", "editor-password", models.RoleEditor); err != nil {
		t.Fatalf("CreateUser() error: %v", err)
	}
	needed, err := env.auth.NeedsSetup(ctx)
	if err != nil || !needed {
		t.Fatalf("NeedsSetup() = %v, %v; want true", needed, err)
	}

	if _, err := env.auth.Setup(ctx, "attacker-pass", "attacker-pass"); !errors.Is(err, ErrSetupComplete) {
		t.Fatalf("Setup() error = %v, want ErrSetupComplete", err)
	}
	if _, err := env.auth.Authenticate(ctx, "admin", "attacker-pass"); err == nil {
		t.Error("setup replaced the existing user's password")
	}
	id, err := env.auth.Authenticate(ctx, "admin", "editor-password")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if id.Role != models.RoleEditor {
		t.Errorf("role = %q, want editor", id.Role)
	}
}

func TestNeedsSetupFalseWithFileAdmin(t *testing.T) {
	env := newTestEnv(t)
	writeAdminINI(t, filepath.Join(env.dir, "admin.ini"), "boss", "secret-pass")
	needed, err := env.auth.NeedsSetup(context.Background())
	if err != nil || needed {
		t.Errorf("NeedsSetup() = %v, %v; want false", needed, err)
	}
}

func TestApplyTab(t *testing.T) {
	env := newTestEnv(t)

	if err := env.settings.ApplyTab("general", url.Values{"title": {"My Blog"}, "posts_per_page": {"5"}}); err != nil {
		t.Fatalf("general: %v", err)
	}
	if site := env.settings.Site(); site.App.Title != "My Blog" || site.App.PostsPerPage != 5 {
		t.Errorf("app = %+v", site.App)
	}
	if err := env.settings.ApplyTab("general", url.Values{"title": {"x"}, "posts_per_page": {"0"}}); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("posts_per_page=0 error = %v", err)
	}

	if err := env.settings.ApplyTab("language", url.Values{"lang": {"de"}}); err != nil {
		t.Fatalf("language: %v", err)
	}
	if err := env.settings.ApplyTab("language", url.Values{"lang": {"xx"}}); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("unsupported language error = %v", err)
	}

	if err := env.settings.ApplyTab("theme", url.Values{"custom_css": {"body {  color : red ; }"}}); err != nil {
		t.Fatalf("theme: %v", err)
	}
	if css := env.settings.ThemeCSS(); css != "body{color:red}" {
		t.Errorf("ThemeCSS() = %q", css)
	}

	form := url.Values{"enabled": {"on"}, "port": {"587"}, "from": {"blog@example.com"}, "notify_to": {"me@example.com"}, "password": {"s3cret"}}
	if err := env.settings.ApplyTab("email", form); err != nil {
		t.Fatalf("email: %v", err)
	}
	form.Del("password")
	if err := env.settings.ApplyTab("email", form); err != nil {
		t.Fatal(err)
	}
	if pw := env.settings.Site().Email.Password; pw != "s3cret" {
		t.Errorf("empty password field overwrote secret: %q", pw)
	}

	if err := env.settings.ApplyTab("backup", url.Values{}); !errors.Is(err, ErrUnknownTab) {
		t.Errorf("unknown tab error = %v", err)
	}
	if site := env.settings.Site(); site.App.Lang != "de" || site.App.Title != "My Blog" {
		t.Errorf("earlier tabs lost: %+v", site.App)
	}
}

func TestFileService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	name, err := env.files.Upload(ctx, "../../My Notes.TXT", strings.NewReader("hi"), 2)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}
	if !strings.HasSuffix(name, "_my-notes.txt") || strings.Contains(name, "/") {
		t.Errorf("stored name = %q", name)
	}
	if _, err := env.files.Upload(ctx, "x.svg", strings.NewReader("<svg/>"), 6); !errors.Is(err, ErrFileType) {
		t.Errorf("svg upload error = %v", err)
	}
	if _, err := env.files.Upload(ctx, "big.txt", strings.NewReader(""), 11<<20); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("large upload error = %v", err)
	}

	list, err := env.files.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}
	for _, bad := range []string{"../config.ini", "a/b", "..", ""} {
		if err := env.files.Delete(ctx, bad); !errors.Is(err, ErrInvalidFileName) {
			t.Errorf("Delete(%q) error = %v", bad, err)
		}
	}
	if err := env.files.Delete(ctx, name); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := env.files.Delete(ctx, name); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.publishedPost(t, "Counted")
	env.posts.CreateDraft(ctx, "Draft", 0)
	env.db.Create(&models.Comment{PostID: post.ID, AuthorName: "x", Content: "y", Status: models.CommentStatusPending})

	st := env.stats.Dashboard(ctx)
	if st.Posts != 2 || st.Published != 1 || st.Drafts != 1 || st.PendingComments != 1 || st.Categories != 1 {
		t.Errorf("stats = %+v", st)
	}
	if len(st.LatestPosts) != 2 {
		t.Errorf("latest = %d, want 2", len(st.LatestPosts))
	}

	sqlDB, _ := env.db.DB()
	sqlDB.Close()
	st = env.stats.Dashboard(ctx)
	if st.Posts != 0 || st.LatestPosts != nil {
		t.Errorf("stats after failure = %+v, want zero", st)
	}
}
