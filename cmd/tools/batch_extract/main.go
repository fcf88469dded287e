package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"pension_extraction/pkg/core/document"
	"pension_extraction/pkg/core/ingest"
	"pension_extraction/pkg/core/pipeline"
	"pension_extraction/pkg/core/schema"
	"pension_extraction/pkg/core/store"
)

func main() {
	dir := flag.String("dir", "", "directory of report renditions (.html / .json)")
	schemaPath := flag.String("schema", "", "schema file (.yaml or .hjson); built-in default when empty")
	outDir := flag.String("out", "records", "output directory for extraction records")
	workers := flag.Int("workers", 4, "number of extraction workers")
	flag.Parse()

	if *dir == "" {
		log.Fatal("Error: -dir is required")
	}

	// Load environment
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env not found, using environment variables")
	}

	cfg := schema.Default()
	if *schemaPath != "" {
		loaded, err := schema.LoadFile(*schemaPath)
		if err != nil {
			log.Fatalf("Error loading schema %s: %v", *schemaPath, err)
		}
		cfg = loaded
	}

	ctx := context.Background()

	var repo *store.RecordStore
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			log.Fatalf("Error connecting to database: %v", err)
		}
		defer store.Close()
		repo = store.NewRecordStore(store.GetPool(), "")
	} else {
		repo = store.NewRecordStore(nil, "")
	}

	items := collectItems(*dir)
	if len(items) == 0 {
		log.Fatalf("No .html or .json renditions found in %s", *dir)
	}
	fmt.Printf("Queueing %d documents for extraction...\n", len(items))

	runner := pipeline.NewRunner(cfg, repo)
	result := runner.RunBatch(ctx, items, *workers)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("Error creating %s: %v", *outDir, err)
	}

	okCount, lowCount, failCount := 0, 0, 0
	for i, rec := range result.Records {
		switch rec.Status {
		case "ok":
			okCount++
		case "low-confidence":
			lowCount++
		default:
			failCount++
		}

		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			log.Fatalf("Error encoding record for %s: %v", result.Names[i], err)
		}
		path := filepath.Join(*outDir, result.Names[i]+".record.json")
		if err := os.WriteFile(path, data, 0644); err != nil {
			log.Fatalf("Error writing %s: %v", path, err)
		}
		fmt.Printf("  %s: year=%d status=%s\n", result.Names[i], rec.ReportingYear, rec.Status)
	}

	fmt.Printf("\n=== Batch %s complete ===\n", result.RunID)
	fmt.Printf("ok=%d low-confidence=%d failed=%d\n", okCount, lowCount, failCount)
}

// collectItems loads every supported rendition in dir, sorted by name so
// batch output order is stable.
func collectItems(dir string) []pipeline.BatchItem {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("Error reading %s: %v", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".html" || ext == ".htm" || ext == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var items []pipeline.BatchItem
	for _, name := range names {
		view, err := ingest.LoadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Skipping %s: %v", name, err)
			items = append(items, pipeline.BatchItem{
				Name: strings.TrimSuffix(name, filepath.Ext(name)),
				View: &document.View{},
			})
			continue
		}
		items = append(items, pipeline.BatchItem{
			Name: strings.TrimSuffix(name, filepath.Ext(name)),
			View: view,
		})
	}
	return items
}
