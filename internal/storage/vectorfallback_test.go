package storage

import "testing"

func TestFallbackCandidateLimitFloors(t *testing.T) {
	if got := FallbackCandidateLimit(1); got != 100 {
		t.Errorf("expected floor of 100, got %d", got)
	}
}

func TestFallbackCandidateLimitCaps(t *testing.T) {
	if got := FallbackCandidateLimit(1000); got != 500 {
		t.Errorf("expected cap of 500, got %d", got)
	}
}

func TestFallbackCandidateLimitScales(t *testing.T) {
	if got := FallbackCandidateLimit(30); got != 150 {
		t.Errorf("expected 5x scaling, got %d", got)
	}
}

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	a := []float32{1, 2, 3}
	if got := CosineSimilarity(a, a); got < 0.999 || got > 1.001 {
		t.Errorf("expected ~1.0, got %v", got)
	}
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestCosineSimilarityMismatchedLengthIsZero(t *testing.T) {
	if got := CosineSimilarity([]float32{1, 2}, []float32{1}); got != 0 {
		t.Errorf("expected 0 for mismatched lengths, got %v", got)
	}
}

func TestCosineSimilarityZeroMagnitudeIsZero(t *testing.T) {
	if got := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("expected 0 for zero-magnitude vector, got %v", got)
	}
}

func TestRankByCosineSortsDescending(t *testing.T) {
	rows := []string{"low", "high", "mid"}
	embeddings := map[string][]float32{
		"low":  {0, 1},
		"high": {1, 0},
		"mid":  {0.7, 0.7},
	}
	query := []float32{1, 0}

	ranked := RankByCosine(rows, query, -1, 0, func(r string) []float32 { return embeddings[r] })
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked rows, got %d", len(ranked))
	}
	if ranked[0].Row != "high" {
		t.Errorf("expected high to rank first, got %q", ranked[0].Row)
	}
	if ranked[len(ranked)-1].Row != "low" {
		t.Errorf("expected low to rank last, got %q", ranked[len(ranked)-1].Row)
	}
}

func TestRankByCosineAppliesThreshold(t *testing.T) {
	rows := []string{"a", "b"}
	embeddings := map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
	}
	query := []float32{1, 0}

	ranked := RankByCosine(rows, query, 0.5, 0, func(r string) []float32 { return embeddings[r] })
	if len(ranked) != 1 || ranked[0].Row != "a" {
		t.Errorf("expected only 'a' to survive the threshold, got %+v", ranked)
	}
}

func TestRankByCosineTruncatesToLimit(t *testing.T) {
	rows := []string{"a", "b", "c"}
	embeddings := map[string][]float32{
		"a": {1, 0},
		"b": {1, 0},
		"c": {1, 0},
	}
	ranked := RankByCosine(rows, []float32{1, 0}, -1, 2, func(r string) []float32 { return embeddings[r] })
	if len(ranked) != 2 {
		t.Errorf("expected truncation to 2, got %d", len(ranked))
	}
}

func TestToFloat32FromFloat32Slice(t *testing.T) {
	in := []float32{1, 2}
	got := ToFloat32(in)
	if len(got) != 2 || got[0] != 1 {
		t.Errorf("expected passthrough, got %+v", got)
	}
}

func TestToFloat32FromFloat64Slice(t *testing.T) {
	in := []float64{1.5, 2.5}
	got := ToFloat32(in)
	if len(got) != 2 || got[0] != 1.5 {
		t.Errorf("expected converted slice, got %+v", got)
	}
}

func TestToFloat32FromInterfaceSlice(t *testing.T) {
	in := []interface{}{float64(1), float64(2)}
	got := ToFloat32(in)
	if len(got) != 2 || got[1] != 2 {
		t.Errorf("expected converted slice, got %+v", got)
	}
}

func TestToFloat32UnsupportedTypeIsNil(t *testing.T) {
	if got := ToFloat32("not a vector"); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
