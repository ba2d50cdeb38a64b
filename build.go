//go:build ignore

// build.go minifies the files under static/ before a release build and
// restores them afterwards:
//
//	go run build.go -release && go build -tags release && go run build.go -clean
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

const (
	staticDir    = "static"
	backupSuffix = ".orig"
)

var (
	m          = minify.New()
	mediaTypes = map[string]string{
		".css": "text/css",
		".js":  "text/javascript",
	}
)

func init() {
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/javascript", js.Minify)
}

func main() {
	release := flag.Bool("release", false, "Minify static assets in place, keeping backups")
	clean := flag.Bool("clean", false, "Restore the original static assets from their backups")
	flag.Parse()

	if *release && *clean {
		log.Fatal("Cannot use -release and -clean flags simultaneously.")
	}

	switch {
	case *release:
		fmt.Println("Processing assets for release...")
		n, err := processAssets()
		if err != nil {
			log.Fatalf("Failed to process assets for release: %v", err)
		}
		fmt.Printf("Minified %d assets.\n", n)
	case *clean:
		fmt.Println("Cleaning up processed assets...")
		n, err := cleanupAssets()
		if err != nil {
			log.Fatalf("Failed to clean up assets: %v", err)
		}
		fmt.Printf("Restored %d assets.\n", n)
	default:
		fmt.Println("No action specified. Use -release to process assets or -clean to clean up.")
	}
}

func processAssets() (int, error) {
	count := 0
	err := filepath.WalkDir(staticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		mediaType, ok := mediaTypes[filepath.Ext(path)]
		if !ok {
			return nil
		}
		backup := path + backupSuffix
		if _, err := os.Stat(backup); err == nil {
			// Already processed by an earlier run.
			return nil
		}
		if err := minifyFile(path, backup, mediaType); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		count++
		return nil
	})
	return count, err
}

func minifyFile(path, backup, mediaType string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := m.Bytes(mediaType, src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(backup, src, 0o644); err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func cleanupAssets() (int, error) {
	count := 0
	err := filepath.WalkDir(staticDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != backupSuffix {
			return err
		}
		if err := os.Rename(path, path[:len(path)-len(backupSuffix)]); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}
