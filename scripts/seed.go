//go:build ignore

// seed.go fills the configured database with demo posts and comments for
// load testing:
//
//	go run scripts/seed.go -posts 1000
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"

	"piperblog/internal/config"
	"piperblog/internal/logger"
	"piperblog/internal/models"
	"piperblog/internal/repository"
	"piperblog/internal/sanitizer"
	"piperblog/internal/services"
	"piperblog/internal/storage"
	"piperblog/internal/utils"
)

const Content = `[h2]Load test post[/h2]
This post was generated by the seed script to measure rendering and query performance.

[list]
[*] First item
[*] Second item
[*] Third item
[/list]

[quote]Performance testing keeps the site stable under load.[/quote]

[code]package main

func main() {}[/code]

Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed non risus. Suspendisse lectus tortor, dignissim sit amet, adipiscing nec, ultricies sed, dolor. Cras elementum ultrices diam. Maecenas ligula massa, varius a, semper congue, euismod non, mi.

Pellentesque habitant morbi tristique senectus et netus et malesuada fames ac turpis egestas. Vestibulum tortor quam, feugiat vitae, ultricies eget, tempor sit amet, ante. Donec eu libero sit amet quam egestas semper.
`

var categoryNames = []string{"Travel", "Code", "Notes"}

func main() {
	total := flag.Int("posts", 1000, "number of posts to create")
	comments := flag.Int("comments", 3, "approved comments per post")
	configPath := flag.String("config", "config/config.ini", "site config file")
	flag.Parse()

	log := logger.New("info", "pretty")
	store, err := config.NewStore(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	site := store.Site()
	db, err := utils.InitDatabase(site.Database, false, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	ctx := context.Background()
	files, err := storage.New(ctx, site.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	san := sanitizer.New()
	settings := services.NewSettingService(store, nil, log)
	posts := services.NewPostService(postRepo, categoryRepo, san, settings, services.NewFileService(files, settings, log), log)
	categories := services.NewCategoryService(categoryRepo, postRepo, log)
	commentService := services.NewCommentService(commentRepo, postRepo, san, settings, nil, log)

	var categoryIDs []uint
	for _, name := range categoryNames {
		c, err := categories.Create(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("category", name).Msg("category not created")
			continue
		}
		categoryIDs = append(categoryIDs, c.ID)
	}

	log.Info().Int("posts", *total).Msg("seeding")
	for i := 1; i <= *total; i++ {
		title := fmt.Sprintf("Load test post %d", i)
		post, err := posts.CreateDraft(ctx, title, 0)
		if err != nil {
			log.Error().Err(err).Int("n", i).Msg("create failed")
			continue
		}
		in := services.PostInput{
			Title:  title,
			Source: fmt.Sprintf("Post number %d.\n\n%s", i, Content),
			Format: string(sanitizer.FormatMarkup),
			Status: models.PostStatusPublished,
		}
		if len(categoryIDs) > 0 {
			id := categoryIDs[rand.Intn(len(categoryIDs))]
			in.CategoryID = &id
		}
		if _, err := posts.Save(ctx, post.ID, in); err != nil {
			log.Error().Err(err).Int("n", i).Msg("save failed")
			continue
		}

		for j := 0; j < *comments; j++ {
			ch := services.NewChallenge()
			c, err := commentService.Submit(ctx, services.CommentInput{
				PostID:    post.ID,
				Name:      fmt.Sprintf("Reader %d", j+1),
				Content:   "A [b]seeded[/b] comment.",
				Challenge: ch,
				Answer:    fmt.Sprint(ch.A + ch.B),
			})
			if err != nil {
				log.Error().Err(err).Int("n", i).Msg("comment failed")
				continue
			}
			if err := commentService.Moderate(ctx, c.ID, "approve"); err != nil {
				log.Error().Err(err).Msg("approve failed")
			}
		}

		if i%100 == 0 {
			log.Info().Int("done", i).Int("total", *total).Msg("progress")
		}
	}
	log.Info().Int("posts", *total).Msg("seed complete")
}
