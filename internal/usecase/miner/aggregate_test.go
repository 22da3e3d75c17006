package miner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/cardquery/internal/domain/translation"
)

func TestAggregate_Filters(t *testing.T) {
	elf := entry("elf tribal", "t:elf", 0.9)

	tests := []struct {
		name          string
		entries       []translation.LogEntry
		patterns      []string
		minCount      int
		minConfidence float64
		want          []Candidate
	}{
		{
			name: "skips entries without a normalized or compiled query",
			entries: append(append(
				repeat(entry("", "t:elf", 0.9), 3),
				repeat(entry("elf tribal", "", 0.9), 3)...),
				repeat(elf, 3)...),
			minCount:      3,
			minConfidence: 0.8,
			want: []Candidate{
				{Key: "elf tribal", Pattern: "elf tribal", CompiledQuery: "t:elf", Confidence: 0.9, Count: 3},
			},
		},
		{
			name:          "below min confidence",
			entries:       repeat(entry("elf tribal", "t:elf", 0.7), 5),
			minCount:      3,
			minConfidence: 0.8,
		},
		{
			name:          "below min count",
			entries:       repeat(elf, 2),
			minCount:      3,
			minConfidence: 0.8,
		},
		{
			name:          "min count met exactly",
			entries:       repeat(elf, 2),
			minCount:      2,
			minConfidence: 0.8,
			want: []Candidate{
				{Key: "elf tribal", Pattern: "elf tribal", CompiledQuery: "t:elf", Confidence: 0.9, Count: 2},
			},
		},
		{
			name:          "covered by an existing rule in another word order",
			entries:       repeat(elf, 4),
			patterns:      []string{"tribal elf"},
			minCount:      3,
			minConfidence: 0.8,
		},
		{
			name: "equal confidence keeps the first query seen",
			entries: []translation.LogEntry{
				entry("red creature", "c:r t:creature", 0.9),
				entry("creature red", "t:creature c:r", 0.9),
				entry("red creature", "c:r t:creature", 0.9),
			},
			minCount:      3,
			minConfidence: 0.8,
			want: []Candidate{
				{Key: "creature red", Pattern: "red creature", CompiledQuery: "c:r t:creature", Confidence: 0.9, Count: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.entries, tt.patterns, tt.minCount, tt.minConfidence)
			require.NotNil(t, got)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Aggregate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
