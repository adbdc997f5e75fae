// Package semantic owns the vector store. The qdrant-backed VectorStore is the
// production implementation; MemoryStore backs tests and single-binary dev.
package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/DocuQuery/docuquery-mvp/engine/domain"
)

// VectorStore is the sole owner of all Qdrant operations.
type VectorStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New creates a VectorStore connected to Qdrant at the given gRPC address.
func New(addr string, collection string) (*VectorStore, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &VectorStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (v *VectorStore) Close() error {
	return v.conn.Close()
}

// EnsureCollection creates the collection if it doesn't exist. dims is the
// fixed embedding dimension D for the whole store.
func (v *VectorStore) EnsureCollection(ctx context.Context, dims int) error {
	list, err := v.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == v.collection {
			return nil
		}
	}

	_, err = v.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: v.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", v.collection, err)
	}
	return nil
}

// Upsert stores chunk records. Called by engine/ingest.
func (v *VectorStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Chunk.Vector},
				},
			},
			Payload: chunkPayload(r.Chunk),
		}
	}

	wait := true
	_, err := v.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %d points: %w", len(records), err)
	}
	return nil
}

// DeleteByDocID removes all points belonging to a document. Used before
// re-ingestion of the same doc id.
func (v *VectorStore) DeleteByDocID(ctx context.Context, docID string) error {
	wait := true
	_, err := v.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: v.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					Must: []*pb.Condition{
						fieldMatch(payloadDocID, docID),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: delete by doc_id %s: %w", docID, err)
	}
	return nil
}

// Search performs k-NN similarity search, returning matches ordered by
// descending score. Called by engine/retrieval.
func (v *VectorStore) Search(ctx context.Context, q Query) ([]domain.RetrievedContext, error) {
	req := &pb.SearchPoints{
		CollectionName: v.collection,
		Vector:         q.Vector,
		Limit:          uint64(q.Limit),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if q.Pool > 0 {
		ef := uint64(q.Pool)
		req.Params = &pb.SearchParams{HnswEf: &ef}
	}

	resp, err := v.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", err)
	}

	results := make([]domain.RetrievedContext, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		results[i] = contextFromPayload(r.GetPayload(), r.GetScore())
	}
	return results, nil
}

func chunkPayload(c domain.Chunk) map[string]*pb.Value {
	payload := map[string]*pb.Value{
		payloadContent:    strValue(c.Text),
		payloadDocID:      strValue(c.DocID),
		payloadSource:     strValue(c.Source),
		payloadChunkType:  strValue(string(c.Type)),
		payloadChunkIndex: intValue(int64(c.Index)),
	}
	if c.Page != nil {
		payload[payloadPage] = intValue(int64(*c.Page))
	}
	for k, val := range c.Metadata {
		if _, reserved := payload[k]; !reserved {
			payload[k] = strValue(val)
		}
	}
	return payload
}

func contextFromPayload(payload map[string]*pb.Value, score float32) domain.RetrievedContext {
	rc := domain.RetrievedContext{
		Score:    score,
		Metadata: make(map[string]string),
	}
	for k, val := range payload {
		switch k {
		case payloadContent:
			rc.Text = val.GetStringValue()
		case payloadDocID:
			rc.DocID = val.GetStringValue()
		case payloadSource:
			rc.Source = val.GetStringValue()
		case payloadChunkType:
			rc.Type = domain.ChunkType(val.GetStringValue())
		case payloadPage:
			p := int(val.GetIntegerValue())
			rc.Page = &p
		case payloadChunkIndex:
			// Positional bookkeeping only; not surfaced on contexts.
		default:
			rc.Metadata[k] = val.GetStringValue()
		}
	}
	return rc
}

func strValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func intValue(n int64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: n}}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}
