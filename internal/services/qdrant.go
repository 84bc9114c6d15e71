package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Rubric document types stored alongside each chunk.
const (
	RubricResume   = "resume_rubric"
	RubricScenario = "scenario_rubric"
)

// RubricStore keeps chunks of hiring rubrics as vectors so evaluators can pull
// the passages that matter for a role.
type RubricStore interface {
	InitCollection(ctx context.Context) error
	UpsertChunk(ctx context.Context, chunk RubricChunk, embedding []float32) error
	SearchSimilar(ctx context.Context, queryEmbedding []float32, filter RubricFilter, limit int) ([]SearchResult, error)
	DeleteSource(ctx context.Context, source string) error
}

type RubricChunk struct {
	Source  string
	DocType string
	Role    string
	Index   int
	Text    string
}

// RubricFilter narrows a search. Empty fields match everything.
type RubricFilter struct {
	DocType string
	Role    string
}

type SearchResult struct {
	ID      string
	Score   float32
	Text    string
	DocType string
	Role    string
}

type qdrantRubricStore struct {
	client         *qdrant.Client
	collectionName string
	vectorSize     uint64
}

func NewQdrantRubricStore(urlStr, apiKey, collectionName string) (RubricStore, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port unless the URL names one
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantRubricStore{
		client:         client,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004
	}, nil
}

// InitCollection implements RubricStore.
func (q *qdrantRubricStore) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		log.Printf("✅ Qdrant collection '%s' already exists\n", q.collectionName)
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("✅ Qdrant collection '%s' created successfully\n", q.collectionName)
	return nil
}

// UpsertChunk implements RubricStore.
func (q *qdrantRubricStore) UpsertChunk(ctx context.Context, chunk RubricChunk, embedding []float32) error {
	point := &qdrant.PointStruct{
		Id:      qdrant.NewID(uuid.NewString()),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"source":   chunk.Source,
			"doc_type": chunk.DocType,
			"role":     chunk.Role,
			"index":    chunk.Index,
			"text":     chunk.Text,
		}),
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchSimilar implements RubricStore.
func (q *qdrantRubricStore) SearchSimilar(ctx context.Context, queryEmbedding []float32, filter RubricFilter, limit int) ([]SearchResult, error) {
	var must []*qdrant.Condition
	if filter.DocType != "" {
		must = append(must, qdrant.NewMatch("doc_type", filter.DocType))
	}
	if filter.Role != "" {
		must = append(must, qdrant.NewMatch("role", filter.Role))
	}

	var qf *qdrant.Filter
	if len(must) > 0 {
		qf = &qdrant.Filter{Must: must}
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Filter:         qf,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, point := range points {
		results = append(results, SearchResult{
			ID:      point.GetId().GetUuid(),
			Score:   point.Score,
			Text:    payloadString(point.Payload, "text"),
			DocType: payloadString(point.Payload, "doc_type"),
			Role:    payloadString(point.Payload, "role"),
		})
	}

	return results, nil
}

// DeleteSource implements RubricStore.
func (q *qdrantRubricStore) DeleteSource(ctx context.Context, source string) error {
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collectionName,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{qdrant.NewMatch("source", source)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete rubric %s: %w", source, err)
	}

	return nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}
