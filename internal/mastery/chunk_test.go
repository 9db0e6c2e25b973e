package mastery

import "testing"

func TestChunkScore(t *testing.T) {
	tests := []struct {
		name   string
		solved int
		total  int
		avg    float64
		want   int
	}{
		{"empty chunk", 3, 0, 80, 0},
		{"full coverage perfect score", 10, 10, 100, 100},
		{"half coverage", 5, 10, 50, 50},
		{"coverage capped at one", 15, 10, 0, 40},
		{"depth without breadth", 3, 30, 100, 64},
		{"rounding", 1, 3, 33, 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChunkScore(tt.solved, tt.total, tt.avg); got != tt.want {
				t.Errorf("ChunkScore(%d, %d, %v) = %d, want %d", tt.solved, tt.total, tt.avg, got, tt.want)
			}
		})
	}
}

func TestAverage(t *testing.T) {
	if got := Average(nil); got != 0 {
		t.Errorf("Average(nil) = %v, want 0", got)
	}
	if got := Average([]float64{10, 20, 60}); !almostEqual(got, 30) {
		t.Errorf("Average = %v, want 30", got)
	}
}

func TestCoverage(t *testing.T) {
	if got := Coverage(4, 5); !almostEqual(got, 0.8) {
		t.Errorf("Coverage(4, 5) = %v, want 0.8", got)
	}
	if got := Coverage(4, 0); got != 0 {
		t.Errorf("Coverage(4, 0) = %v, want 0", got)
	}
}
