package vectorsink

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
)

const ingestedAtLayout = "2006-01-02T15:04:05.000Z07:00"

func parseIngestedAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(ingestedAtLayout, s)
}

// Sink upserts and deletes per-chunk vectors in a single Qdrant
// collection.
//
// Consistency with the graph sink: the two are best-effort
// together, not transactional. If the graph persists but this fails,
// the next ingest retries; because point IDs are content-addressed
// (pointID), retried upserts are idempotent.
type Sink struct {
	client     *qdrant.Client
	collection string
	vectorizer Vectorizer
}

// NewSink dials Qdrant and returns a Sink bound to cfg.CollectionName.
func NewSink(cfg Config, vectorizer Vectorizer) (*Sink, error) {
	host, port, useTLS, err := parseQdrantURL(cfg.URL)
	if err != nil {
		return nil, pmerrors.InvalidArgument("vectorsink", "invalid qdrant URL: "+cfg.URL, err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, pmerrors.ExternalStoreError("vectorsink", "failed to create qdrant client", err)
	}

	return &Sink{client: client, collection: cfg.CollectionName, vectorizer: vectorizer}, nil
}

func parseQdrantURL(raw string) (host string, port int, useTLS bool, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, err
	}
	host = u.Hostname()
	port = 6334
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, false, err
		}
	}
	useTLS = u.Scheme == "https"
	return host, port, useTLS, nil
}

// EnsureCollection creates the configured collection if it does not
// already exist, sized for dimensions-dimensional cosine vectors.
func (s *Sink) EnsureCollection(ctx context.Context, dimensions int) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return pmerrors.ExternalStoreError("vectorsink", "failed to check collection existence", err)
	}
	if exists {
		return nil
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return pmerrors.ExternalStoreError("vectorsink", "failed to create collection: "+s.collection, err)
	}
	return nil
}

// Upsert vectorizes and writes each record's chunk content, keyed by
// pointID(record.ChunkID).
func (s *Sink) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		vec, err := s.vectorizer.Vectorize(ctx, r.Content)
		if err != nil {
			return pmerrors.Wrap("vectorsink", pmerrors.CategoryExternalStoreError, err)
		}

		payload := qdrant.NewValueMap(map[string]any{
			"projectId":  r.ProjectID,
			"filePath":   r.FilePath,
			"chunkId":    r.ChunkID,
			"sha256":     r.SHA256,
			"type":       r.Type,
			"content":    r.Content,
			"ingestedAt": r.IngestedAt.UTC().Format(ingestedAtLayout),
			"dataType":   r.DataType,
		})

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(r.ChunkID)),
			Vectors: qdrant.NewVectors(vec...),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return pmerrors.ExternalStoreError("vectorsink", fmt.Sprintf("failed to upsert %d points", len(points)), err)
	}
	return nil
}

// SearchResult is one scored match from Search.
type SearchResult struct {
	Score   float32
	Payload Record
}

// Search vectorizes query and returns the limit nearest chunk
// vectors in the collection, scored by cosine similarity. Filtering
// by project/file/type beyond what Qdrant is asked to match is the
// caller's responsibility (spec §4.12 searchCode: "client-side
// filtering on projectId/filePath/type").
func (s *Sink) Search(ctx context.Context, query string, limit uint64) ([]SearchResult, error) {
	vec, err := s.vectorizer.Vectorize(ctx, query)
	if err != nil {
		return nil, pmerrors.Wrap("vectorsink", pmerrors.CategoryExternalStoreError, err)
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, pmerrors.ExternalStoreError("vectorsink", "failed to query collection: "+s.collection, err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, SearchResult{
			Score:   p.GetScore(),
			Payload: recordFromPayload(p.GetPayload()),
		})
	}
	return results, nil
}

func recordFromPayload(payload map[string]*qdrant.Value) Record {
	get := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	ingestedAt, _ := parseIngestedAt(get("ingestedAt"))
	return Record{
		ProjectID:  get("projectId"),
		FilePath:   get("filePath"),
		ChunkID:    get("chunkId"),
		SHA256:     get("sha256"),
		Type:       get("type"),
		Content:    get("content"),
		IngestedAt: ingestedAt,
		DataType:   get("dataType"),
	}
}

// DeleteProject deletes every point whose projectId payload field
// matches projectID.
func (s *Sink) DeleteProject(ctx context.Context, projectID string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("projectId", projectID),
		},
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return pmerrors.ExternalStoreError("vectorsink", "failed to delete project points: "+projectID, err)
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (s *Sink) Close() error {
	return s.client.Close()
}
