//go:build release

package main

import (
	"embed"
	"io/fs"

	"github.com/rs/zerolog/log"
)

//go:embed all:templates
var embedTemplatesFS embed.FS

//go:embed all:static
var embedStaticFS embed.FS

func init() {
	var err error
	templatesFS, err = fs.Sub(embedTemplatesFS, "templates")
	if err != nil {
		log.Fatal().Err(err).Msg("embedded templates unavailable")
	}
	staticFS, err = fs.Sub(embedStaticFS, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("embedded static files unavailable")
	}
}
