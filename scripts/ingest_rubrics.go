package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"alfredoptarigan/interview-agent/internal/config"
	"alfredoptarigan/interview-agent/internal/services"
)

type rubricDoc struct {
	Path    string
	DocType string
	Role    string
}

func main() {
	dir := flag.String("dir", "./rubrics", "directory holding resume/<role>.{pdf,docx,txt} and scenario.{pdf,docx,txt}")
	flag.Parse()

	log.Println("🚀 Starting rubric ingestion...")

	cfg := config.Load()
	catalog, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("❌ Failed to load interview catalog: %v", err)
	}

	ctx := context.Background()

	gemini, err := services.NewGeminiService(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	rubrics, err := services.NewQdrantRubricStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}
	if err := rubrics.InitCollection(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize collection: %v", err)
	}

	parser := services.NewDocumentParser()
	chunker := services.NewTextChunker()

	docs := discover(*dir, catalog)
	if len(docs) == 0 {
		log.Fatalf("❌ No rubric documents found under %s", *dir)
	}

	failCount := 0
	for _, doc := range docs {
		log.Printf("📄 Processing %s (type=%s role=%q)", doc.Path, doc.DocType, doc.Role)

		text, err := parser.ExtractText(doc.Path)
		if err != nil {
			log.Printf("   ❌ Failed to extract text: %v", err)
			failCount++
			continue
		}

		// re-ingesting a file replaces its earlier chunks
		if err := rubrics.DeleteSource(ctx, doc.Path); err != nil {
			log.Printf("   ❌ Failed to clear previous chunks: %v", err)
			failCount++
			continue
		}

		chunks := chunker.ChunkText(text, 1000, 200)
		stored := 0
		for i, chunk := range chunks {
			embedding, err := gemini.GenerateEmbedding(ctx, chunk)
			if err != nil {
				log.Printf("   ❌ Failed to embed chunk %d: %v", i+1, err)
				continue
			}

			err = rubrics.UpsertChunk(ctx, services.RubricChunk{
				Source:  doc.Path,
				DocType: doc.DocType,
				Role:    doc.Role,
				Index:   i,
				Text:    chunk,
			}, embedding)
			if err != nil {
				log.Printf("   ❌ Failed to store chunk %d: %v", i+1, err)
				continue
			}
			stored++
		}

		log.Printf("   ✅ Stored %d/%d chunks", stored, len(chunks))
		if stored < len(chunks) {
			failCount++
		}
	}

	log.Println(strings.Repeat("=", 60))
	log.Printf("📊 Ingested %d documents, %d with failures", len(docs), failCount)
	log.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		os.Exit(1)
	}
}

// discover finds one resume rubric per catalog role, named after the role in
// lower case with spaces as underscores, plus the shared scenario rubric.
func discover(dir string, catalog *config.Catalog) []rubricDoc {
	var docs []rubricDoc

	for _, role := range catalog.RoleNames() {
		slug := strings.ReplaceAll(strings.ToLower(role), " ", "_")
		if path, ok := findDocument(filepath.Join(dir, "resume", slug)); ok {
			docs = append(docs, rubricDoc{Path: path, DocType: services.RubricResume, Role: role})
		} else {
			log.Printf("⚠️  No resume rubric for %s", role)
		}
	}

	if path, ok := findDocument(filepath.Join(dir, "scenario")); ok {
		docs = append(docs, rubricDoc{Path: path, DocType: services.RubricScenario})
	}

	return docs
}

func findDocument(base string) (string, bool) {
	for _, ext := range services.SupportedResumeExtensions {
		if _, err := os.Stat(base + ext); err == nil {
			return base + ext, true
		}
	}
	return "", false
}
