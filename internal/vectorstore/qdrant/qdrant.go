package qdrant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"docqa/internal/domain"
)

// Storage is a vector index backed by a Qdrant collection. Point ids are the
// insertion positions, so search hits map straight back to the chunk
// sequence. It uses dot-product distance on unit vectors.
type Storage struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	apiKey      string
	timeout     time.Duration

	mu        sync.RWMutex
	dimension int
	n         int
}

var _ domain.VectorIndex = (*Storage)(nil)

// Config contains connection details for a Qdrant gRPC endpoint.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// NewStorage dials Qdrant. The collection is created by Reset.
func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("%w: qdrant collection required", domain.ErrInvalidConfig)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	return &Storage{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  cfg.Collection,
		apiKey:      cfg.APIKey,
		timeout:     cfg.Timeout,
	}, nil
}

func (s *Storage) rpcContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Reset drops and recreates the collection.
func (s *Storage) Reset(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidConfig, dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()

	// Deleting a missing collection is not an error for Qdrant.
	if _, err := s.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: s.collection}); err != nil {
		return fmt.Errorf("qdrant delete collection %s: %w", s.collection, err)
	}
	_, err := s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{
			Size:     uint64(dimension),
			Distance: pb.Distance_Dot,
		}}},
	})
	if err != nil {
		return fmt.Errorf("qdrant create collection %s: %w", s.collection, err)
	}
	s.dimension = dimension
	s.n = 0
	return nil
}

// Add upserts vectors at positions Len(), Len()+1, ...
func (s *Storage) Add(ctx context.Context, vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	points := make([]*pb.PointStruct, len(vectors))
	for i, v := range vectors {
		if len(v) != s.dimension {
			return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), s.dimension)
		}
		points[i] = &pb.PointStruct{
			Id:      pointID(s.n + i),
			Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: v}}},
		}
	}
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	wait := true
	if _, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	s.n += len(vectors)
	return nil
}

// Truncate deletes every point at position n or later.
func (s *Storage) Truncate(ctx context.Context, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 0 || n > s.n {
		return fmt.Errorf("truncate to %d: index holds %d vectors", n, s.n)
	}
	if n == s.n {
		return nil
	}
	ids := make([]*pb.PointId, 0, s.n-n)
	for p := n; p < s.n; p++ {
		ids = append(ids, pointID(p))
	}
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	wait := true
	if _, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{PointsSelectorOneOf: &pb.PointsSelector_Points{
			Points: &pb.PointsIdsList{Ids: ids},
		}},
	}); err != nil {
		return fmt.Errorf("qdrant delete points: %w", err)
	}
	s.n = n
	return nil
}

// Len returns the number of vectors added since the last Reset.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.n
}

// Search returns the k best dot-product matches.
func (s *Storage) Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(query) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d, want %d", domain.ErrDimensionMismatch, len(query), s.dimension)
	}
	if k <= 0 || s.n == 0 {
		return nil, nil
	}
	ctx, cancel := s.rpcContext(ctx)
	defer cancel()
	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         query,
		Limit:          uint64(k),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search: %w", err)
	}
	hits := make([]domain.Hit, 0, len(resp.GetResult()))
	for _, pt := range resp.GetResult() {
		hits = append(hits, domain.Hit{Position: int(pt.GetId().GetNum()), Score: pt.GetScore()})
	}
	return hits, nil
}

// Close closes the gRPC connection.
func (s *Storage) Close() error {
	if s.conn == nil {
		return errors.New("qdrant: not connected")
	}
	return s.conn.Close()
}

func pointID(position int) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Num{Num: uint64(position)}}
}
