package phonemize_test

import (
	"reflect"
	"testing"

	"github.com/example/go-phonemizer/internal/phonemize"
)

func TestChunks(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name        string
		lines       []string
		n           int
		wantChunks  [][]string
		wantOffsets []int
	}{
		{
			"single chunk",
			lines, 1,
			[][]string{{"a", "b", "c", "d", "e"}},
			[]int{0},
		},
		{
			"longer tail",
			lines, 2,
			[][]string{{"a", "b"}, {"c", "d", "e"}},
			[]int{0, 2},
		},
		{
			"more jobs than lines",
			[]string{"a", "b", "c"}, 10,
			[][]string{{"a"}, {"b"}, {"c"}},
			[]int{0, 1, 2},
		},
		{
			"zero jobs behaves as one",
			[]string{"a", "b"}, 0,
			[][]string{{"a", "b"}},
			[]int{0},
		},
		{
			"empty input",
			nil, 4,
			nil,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, offsets := phonemize.Chunks(tt.lines, tt.n)
			if !reflect.DeepEqual(chunks, tt.wantChunks) {
				t.Errorf("chunks = %v; want %v", chunks, tt.wantChunks)
			}

			if !reflect.DeepEqual(offsets, tt.wantOffsets) {
				t.Errorf("offsets = %v; want %v", offsets, tt.wantOffsets)
			}
		})
	}
}

func TestChunks_CoverAllLines(t *testing.T) {
	lines := make([]string, 17)
	for i := range lines {
		lines[i] = string(rune('a' + i))
	}

	for n := 1; n <= 20; n++ {
		chunks, offsets := phonemize.Chunks(lines, n)
		if len(chunks) != len(offsets) {
			t.Fatalf("n=%d: %d chunks but %d offsets", n, len(chunks), len(offsets))
		}

		var flat []string
		for i, chunk := range chunks {
			if offsets[i] != len(flat) {
				t.Errorf("n=%d chunk %d: offset %d; want %d", n, i, offsets[i], len(flat))
			}
			flat = append(flat, chunk...)
		}

		if !reflect.DeepEqual(flat, lines) {
			t.Errorf("n=%d: flattened chunks differ from input", n)
		}
	}
}
