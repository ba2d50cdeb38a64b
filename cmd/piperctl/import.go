package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"piperblog/internal/models"
	"piperblog/internal/repository"
	"piperblog/internal/sanitizer"
	"piperblog/internal/services"
	"piperblog/internal/storage"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var frontMatterRegex = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n`)

// FrontMatter is the YAML header of an imported Markdown file.
type FrontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	PublishDate any      `yaml:"publishDate"`
	Date        any      `yaml:"date"`
	Draft       bool     `yaml:"draft"`
	Categories  []string `yaml:"categories"`
	HeroImage   string   `yaml:"heroImage"`
}

// importedPost is one parsed Markdown file.
type importedPost struct {
	FrontMatter
	Body        string
	PublishedAt time.Time
}

func parseMarkdownFile(data []byte, fallback time.Time) (*importedPost, error) {
	matches := frontMatterRegex.FindSubmatch(data)
	if len(matches) < 2 {
		return nil, errors.New("no front matter")
	}
	var fm FrontMatter
	if err := yaml.Unmarshal(matches[1], &fm); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return nil, services.ErrTitleRequired
	}
	published := parseDate(fm.PublishDate)
	if published.IsZero() {
		published = parseDate(fm.Date)
	}
	if published.IsZero() {
		published = fallback
	}
	return &importedPost{
		FrontMatter: fm,
		Body:        strings.TrimSpace(string(data[len(matches[0]):])),
		PublishedAt: published,
	}, nil
}

// parseDate accepts the date shapes YAML front matter commonly carries.
func parseDate(v any) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

type importer struct {
	posts      *services.PostService
	postRepo   *repository.PostRepository
	categories *services.CategoryService
	log        zerolog.Logger
}

func (im *importer) importPost(ctx context.Context, p *importedPost) (*models.Post, error) {
	in := services.PostInput{
		Title:     p.Title,
		Excerpt:   p.Description,
		Source:    p.Body,
		Format:    string(sanitizer.FormatMarkdown),
		HeroImage: p.HeroImage,
		Status:    models.PostStatusDraft,
	}
	if len(p.Categories) > 0 {
		id, err := im.category(ctx, p.Categories[0])
		if err != nil {
			return nil, err
		}
		in.CategoryID = &id
	}

	post, err := im.posts.CreateDraft(ctx, p.Title, 0)
	if err != nil {
		return nil, err
	}
	if post, err = im.posts.Save(ctx, post.ID, in); err != nil {
		return nil, err
	}
	if !p.Draft {
		published := p.PublishedAt
		if err := im.postRepo.UpdateStatus(ctx, post.ID, models.PostStatusPublished, &published); err != nil {
			return nil, err
		}
		post.Status = models.PostStatusPublished
		post.PublishedAt = &published
	}
	return post, nil
}

// category finds a category by name, creating it when missing.
func (im *importer) category(ctx context.Context, name string) (uint, error) {
	if c, err := im.categories.FindBySlug(ctx, slug.Make(name)); err == nil {
		return c.ID, nil
	} else if !errors.Is(err, services.ErrCategoryNotFound) {
		return 0, err
	}
	c, err := im.categories.Create(ctx, name)
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

func importMarkdown(args []string, log zerolog.Logger) error {
	fs := flag.NewFlagSet("import-markdown", flag.ExitOnError)
	configPath := fs.String("config", envOr("PIPERBLOG_CONFIG", "config/config.ini"), "site config file")
	dir := fs.String("dir", "", "directory of .md files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		return errors.New("-dir is required")
	}

	e, err := openEnv(*configPath, log)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := context.Background()
	store, err := storage.New(ctx, e.store.Site().Storage)
	if err != nil {
		return err
	}
	postRepo := repository.NewPostRepository(e.db)
	categoryRepo := repository.NewCategoryRepository(e.db)
	settings := services.NewSettingService(e.store, nil, log)
	files := services.NewFileService(store, settings, log)
	im := &importer{
		posts:      services.NewPostService(postRepo, categoryRepo, sanitizer.New(), settings, files, log),
		postRepo:   postRepo,
		categories: services.NewCategoryService(categoryRepo, postRepo, log),
		log:        log,
	}

	imported, skipped := 0, 0
	err = filepath.WalkDir(*dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		parsed, err := parseMarkdownFile(data, info.ModTime())
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("skipped")
			skipped++
			return nil
		}
		post, err := im.importPost(ctx, parsed)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("import failed")
			skipped++
			return nil
		}
		log.Info().Str("file", path).Str("slug", post.Slug).Msg("imported")
		imported++
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Printf("imported %d posts, skipped %d\n", imported, skipped)
	return nil
}
