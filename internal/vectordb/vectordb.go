// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

// Match represents a vector search hit.
type Match struct {
	ID         string
	DocumentID string
	SourceID   string
	ChunkIndex int
	ChunkText  string
	Score      float32
	Metadata   map[string]string
}

// PointMeta is the payload carried by every chunk point upserted for a
// logical id. DocumentID or SourceID is set depending on which kind of
// resource owns the chunks; Filename/URL are set when known.
type PointMeta struct {
	DocumentID string
	SourceID   string
	OwnerID    string
	SourceType string
	Filename   string
	URL        string
}

// VectorDB describes the Vector Index Gateway behaviour the Resource
// Service, the indexing worker, and the retrieval tool all depend on.
type VectorDB interface {
	// Upsert replaces every chunk point for logicalID with the given
	// chunks/embeddings, keyed so a re-index of the same logical id
	// overwrites in place instead of leaving stale points behind.
	Upsert(ctx context.Context, logicalID string, chunks []string, embeddings [][]float32, meta PointMeta) error
	// Search returns the topK closest points to vector, optionally
	// restricted to a set of logical ids and/or an owner.
	Search(ctx context.Context, vector []float32, topK int, ids []string, ownerID string) ([]Match, error)
	// DeleteByLogicalID removes every chunk point stored under logicalID.
	DeleteByLogicalID(ctx context.Context, logicalID string) error
	// PurgeByOwner removes every point belonging to ownerID.
	PurgeByOwner(ctx context.Context, ownerID string) error
	// PurgeCollection drops every point in the collection.
	PurgeCollection(ctx context.Context) error
	// PointCount reports how many points the collection currently holds.
	PointCount(ctx context.Context) (int, error)
}

// QdrantVectorDB is a thin wrapper around the Qdrant service clients.
type QdrantVectorDB struct {
	collectionsSvc qdrant.CollectionsClient
	pointsSvc      qdrant.PointsClient
	collection     string
	dimension      int
}

// NewQdrantVectorDB constructs a new wrapper and ensures the collection exists.
func NewQdrantVectorDB(conn *grpc.ClientConn, collection string, dimension int) (*QdrantVectorDB, error) {
	if conn == nil {
		return nil, errors.New("gRPC connection is required")
	}
	if collection == "" {
		collection = "notebook_chunks"
	}
	if dimension == 0 {
		dimension = 1536
	}

	vdb := &QdrantVectorDB{
		collectionsSvc: qdrant.NewCollectionsClient(conn),
		pointsSvc:      qdrant.NewPointsClient(conn),
		collection:     collection,
		dimension:      dimension,
	}

	if err := vdb.ensureCollection(context.Background(), dimension); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	return vdb, nil
}

func (q *QdrantVectorDB) ensureCollection(ctx context.Context, dim int) error {
	collections, err := q.collectionsSvc.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, coll := range collections.Collections {
		if coll.Name == q.collection {
			q.dimension = dim
			return nil
		}
	}

	_, err = q.collectionsSvc.Create(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dim),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	log.Printf("Created Qdrant collection %s with dimension %d", q.collection, dim)
	q.dimension = dim
	return nil
}

// pointID derives a deterministic, positive 63-bit numeric point id
// from "{logicalID}_{index}" so re-indexing the same logical id
// overwrites its previous points instead of accumulating duplicates.
func pointID(logicalID string, index int) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s_%d", logicalID, index)
	sum := h.Sum64()
	return sum &^ (1 << 63) // clear the sign bit: stays within int63 range
}

// Upsert replaces every chunk point for logicalID.
func (q *QdrantVectorDB) Upsert(ctx context.Context, logicalID string, chunks []string, embeddings [][]float32, meta PointMeta) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	if err := q.DeleteByLogicalID(ctx, logicalID); err != nil {
		return fmt.Errorf("failed to clear previous points for %s: %w", logicalID, err)
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		payload := map[string]*qdrant.Value{
			"chunk_index": {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(i)}},
			"chunk_text":  {Kind: &qdrant.Value_StringValue{StringValue: chunk}},
		}
		if meta.DocumentID != "" {
			payload["document_id"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: meta.DocumentID}}
		}
		if meta.SourceID != "" {
			payload["source_id"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: meta.SourceID}}
		}
		if meta.OwnerID != "" {
			payload["owner_id"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: meta.OwnerID}}
		}
		if meta.SourceType != "" {
			payload["source_type"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: meta.SourceType}}
		}
		if meta.Filename != "" {
			payload["filename"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: meta.Filename}}
		}
		if meta.URL != "" {
			payload["url"] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: meta.URL}}
		}

		points = append(points, &qdrant.PointStruct{
			Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: pointID(logicalID, i)}},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: embeddings[i]}},
			},
			Payload: payload,
		})
	}

	_, err := q.pointsSvc.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert points for %s: %w", logicalID, err)
	}
	log.Printf("vector upsert success for %s (%d chunks)", logicalID, len(chunks))
	return nil
}

func idFilter(ids []string) *qdrant.Condition {
	conds := make([]*qdrant.Condition, 0, len(ids)*2)
	for _, id := range ids {
		conds = append(conds,
			fieldMatch("document_id", id),
			fieldMatch("source_id", id),
		)
	}
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Filter{
			Filter: &qdrant.Filter{Should: conds},
		},
	}
}

func fieldMatch(field, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key:   field,
				Match: &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: value}},
			},
		},
	}
}

// Search performs a similarity search, restricted to ids (OR'd over
// document_id/source_id) and, when ownerID is set, AND'd with owner_id.
func (q *QdrantVectorDB) Search(ctx context.Context, vector []float32, topK int, ids []string, ownerID string) ([]Match, error) {
	if len(vector) == 0 {
		return nil, errors.New("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	var filter *qdrant.Filter
	if len(ids) > 0 || ownerID != "" {
		filter = &qdrant.Filter{}
		if len(ids) > 0 {
			filter.Must = append(filter.Must, idFilter(ids))
		}
		if ownerID != "" {
			filter.Must = append(filter.Must, fieldMatch("owner_id", ownerID))
		}
	}

	searchResult, err := q.pointsSvc.Search(ctx, &qdrant.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Filter:         filter,
		Limit:          uint64(topK),
		WithPayload:    &qdrant.WithPayloadSelector{SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &qdrant.WithVectorsSelector{SelectorOptions: &qdrant.WithVectorsSelector_Enable{Enable: false}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]Match, 0, len(searchResult.Result))
	for _, scoredPoint := range searchResult.Result {
		m := Match{Score: scoredPoint.Score, Metadata: map[string]string{}}
		if scoredPoint.Id != nil {
			if num := scoredPoint.Id.GetNum(); num != 0 {
				m.ID = fmt.Sprintf("%d", num)
			}
		}
		if scoredPoint.Payload != nil {
			for key, value := range scoredPoint.Payload {
				switch key {
				case "document_id":
					m.DocumentID = value.GetStringValue()
				case "source_id":
					m.SourceID = value.GetStringValue()
				case "chunk_text":
					m.ChunkText = value.GetStringValue()
				case "chunk_index":
					m.ChunkIndex = int(value.GetIntegerValue())
				default:
					if s := value.GetStringValue(); s != "" {
						m.Metadata[key] = s
					}
				}
			}
		}
		matches = append(matches, m)
	}

	return matches, nil
}

// DeleteByLogicalID removes every chunk point stored under logicalID.
func (q *QdrantVectorDB) DeleteByLogicalID(ctx context.Context, logicalID string) error {
	_, err := q.pointsSvc.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{Should: []*qdrant.Condition{
					fieldMatch("document_id", logicalID),
					fieldMatch("source_id", logicalID),
				}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete points for %s: %w", logicalID, err)
	}
	return nil
}

// PurgeByOwner removes every point belonging to ownerID.
func (q *QdrantVectorDB) PurgeByOwner(ctx context.Context, ownerID string) error {
	_, err := q.pointsSvc.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{Must: []*qdrant.Condition{fieldMatch("owner_id", ownerID)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to purge owner %s: %w", ownerID, err)
	}
	return nil
}

// PurgeCollection drops every point in the collection.
func (q *QdrantVectorDB) PurgeCollection(ctx context.Context) error {
	_, err := q.pointsSvc.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to purge collection: %w", err)
	}
	return nil
}

// PointCount returns the number of points in the collection.
func (q *QdrantVectorDB) PointCount(ctx context.Context) (int, error) {
	info, err := q.collectionsSvc.Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: q.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get collection info: %w", err)
	}
	if info.Result == nil || info.Result.PointsCount == nil {
		return 0, nil
	}
	return int(*info.Result.PointsCount), nil
}
