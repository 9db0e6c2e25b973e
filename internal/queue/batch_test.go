package queue

import (
	"fmt"
	"testing"
)

func items(n int) []Item {
	out := make([]Item, n)
	for i := range out {
		out[i] = Item{QuestionID: fmt.Sprintf("q%d", i)}
	}
	return out
}

func TestCreateBatches_Empty(t *testing.T) {
	b := CreateBatches(nil, 10)
	if len(b) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(b))
	}
	if len(b[0]) != 0 {
		t.Fatalf("expected empty batch, got %d items", len(b[0]))
	}
}

func TestCreateBatches_Sizes(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{1, []int{1}},
		{10, []int{10}},
		{12, []int{10, 2}},
		{25, []int{10, 10, 5}},
	}
	for _, tt := range tests {
		b := CreateBatches(items(tt.n), 10)
		if len(b) != len(tt.want) {
			t.Errorf("n=%d: got %d batches, want %d", tt.n, len(b), len(tt.want))
			continue
		}
		for i, size := range tt.want {
			if len(b[i]) != size {
				t.Errorf("n=%d: batch %d has %d items, want %d", tt.n, i, len(b[i]), size)
			}
		}
	}
}

func TestCreateBatches_ConcatenationEqualsInput(t *testing.T) {
	in := items(23)
	flat := Flatten(CreateBatches(in, 10))
	if len(flat) != len(in) {
		t.Fatalf("flattened length %d, want %d", len(flat), len(in))
	}
	for i := range in {
		if flat[i].QuestionID != in[i].QuestionID {
			t.Errorf("index %d: got %s, want %s", i, flat[i].QuestionID, in[i].QuestionID)
		}
	}
}

func TestCreateBatches_DoesNotAlias(t *testing.T) {
	in := items(3)
	b := CreateBatches(in, 10)
	b[0][0].QuestionID = "changed"
	if in[0].QuestionID != "q0" {
		t.Error("mutating a batch changed the input slice")
	}
}

func TestBatchIndexOf(t *testing.T) {
	b := CreateBatches(items(12), 10)
	tests := []struct{ idx, want int }{
		{0, 0}, {9, 0}, {10, 1}, {11, 1}, {12, 1}, {50, 1},
	}
	for _, tt := range tests {
		if got := BatchIndexOf(b, tt.idx); got != tt.want {
			t.Errorf("BatchIndexOf(%d) = %d, want %d", tt.idx, got, tt.want)
		}
	}
	if got := BatchIndexOf([][]Item{{}}, 0); got != 0 {
		t.Errorf("empty batches: got %d, want 0", got)
	}
}

func TestBatchStart(t *testing.T) {
	b := CreateBatches(items(25), 10)
	if BatchStart(b, 0) != 0 || BatchStart(b, 1) != 10 || BatchStart(b, 2) != 20 {
		t.Errorf("unexpected batch starts")
	}
}
