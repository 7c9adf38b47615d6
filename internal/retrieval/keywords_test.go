package retrieval

import (
	"math"
	"reflect"
	"testing"
)

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "empty query",
			query: "",
			want:  nil,
		},
		{
			name:  "only stopwords",
			query: "What is the",
			want:  nil,
		},
		{
			name:  "typical revision question",
			query: "What is counterurbanisation?",
			want:  []string{"counterurbanisation"},
		},
		{
			name:  "command words filtered",
			query: "Explain the causes of coastal erosion",
			want:  []string{"causes", "coastal", "erosion"},
		},
		{
			name:  "short tokens dropped",
			query: "an ox in a bog near the dune",
			want:  []string{"bog", "dune", "near"},
		},
		{
			name:  "numbers and punctuation split words",
			query: "population growth in 2024, urbanisation!",
			want:  []string{"growth", "population", "urbanisation"},
		},
		{
			name:  "duplicates count once",
			query: "erosion erosion EROSION",
			want:  []string{"erosion"},
		},
		{
			name:  "mixed case lowered",
			query: "Describe MIGRATION patterns",
			want:  []string{"migration", "patterns"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTerms(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTerms(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestKeywordScore(t *testing.T) {
	tests := []struct {
		name    string
		content string
		terms   []string
		want    float64
	}{
		{
			name:    "no terms",
			content: "erosion shapes the coastline",
			terms:   nil,
			want:    0,
		},
		{
			name:    "empty content",
			content: "",
			terms:   []string{"erosion"},
			want:    0,
		},
		{
			name:    "no matches",
			content: "volcanoes and earthquakes",
			terms:   []string{"erosion"},
			want:    0,
		},
		{
			name:    "single match",
			content: "coastal erosion is gradual",
			terms:   []string{"erosion"},
			want:    1.0 / 3.0,
		},
		{
			name:    "occurrences capped at three",
			content: "erosion erosion erosion erosion erosion",
			terms:   []string{"erosion"},
			want:    1,
		},
		{
			name:    "two terms partial match",
			content: "erosion erosion happens at the coast",
			terms:   []string{"erosion", "migration"},
			want:    2.0 / 6.0,
		},
		{
			name:    "case insensitive",
			content: "EROSION at the headland",
			terms:   []string{"erosion"},
			want:    1.0 / 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeywordScore(tt.content, tt.terms)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("KeywordScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeywordScore_Bounded(t *testing.T) {
	contents := []string{
		"erosion migration urbanisation erosion migration urbanisation erosion",
		"erosion",
		"nothing relevant here at all",
	}
	terms := []string{"erosion", "migration", "urbanisation"}

	for _, content := range contents {
		got := KeywordScore(content, terms)
		if got < 0 || got > 1 {
			t.Errorf("KeywordScore(%q) = %v, want value in [0,1]", content, got)
		}
	}
}
