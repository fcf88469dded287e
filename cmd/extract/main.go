package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"pension_extraction/pkg/core/ingest"
	"pension_extraction/pkg/core/pipeline"
	"pension_extraction/pkg/core/schema"
	"pension_extraction/pkg/core/store"
)

func main() {
	input := flag.String("input", "", "report rendition to extract (.html or .json)")
	schemaPath := flag.String("schema", "", "schema file (.yaml or .hjson); built-in default when empty")
	year := flag.Int("year", 0, "reporting year override; 0 = detect from document")
	out := flag.String("out", "", "record output path; stdout when empty")
	reportPath := flag.String("report", "", "optional markdown review report output path")
	noPersist := flag.Bool("no-persist", false, "skip record persistence")
	flag.Parse()

	if *input == "" {
		log.Fatal("Error: -input is required")
	}

	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, assuming environment variables are set.")
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
	if !*noPersist {
		if os.Getenv("DATABASE_URL") != "" {
			if err := store.InitDB(ctx); err != nil {
				log.Fatalf("Error connecting to database: %v", err)
			}
			defer store.Close()
			repo = store.NewRecordStore(store.GetPool(), "")
		} else {
			repo = store.NewRecordStore(nil, "")
		}
	}

	view, err := ingest.LoadFile(*input)
	if err != nil {
		log.Fatalf("Error loading %s: %v", *input, err)
	}

	runner := pipeline.NewRunner(cfg, repo)
	rec := runner.Run(ctx, view, *year)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding record: %v", err)
	}
	if *out == "" {
		fmt.Println(string(data))
	} else if err := os.WriteFile(*out, data, 0644); err != nil {
		log.Fatalf("Error writing %s: %v", *out, err)
	}

	if *reportPath != "" {
		report := pipeline.ReviewReport(rec)
		if err := os.WriteFile(*reportPath, []byte(report), 0644); err != nil {
			log.Fatalf("Error writing %s: %v", *reportPath, err)
		}
	}

	fmt.Printf("Extraction complete: year=%d status=%s warnings=%d\n",
		rec.ReportingYear, rec.Status, len(rec.Warnings))
}
