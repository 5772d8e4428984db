package search

import (
	"testing"

	"github.com/festivald/festivald/internal/collection"
)

func sampleCollection() *collection.Collection {
	c := collection.Empty()
	c.Artists = []collection.Artist{
		{Name: "Daft Punk", NameLower: "daft punk"},
		{Name: "Radiohead", NameLower: "radiohead"},
	}
	c.Albums = []collection.Album{
		{Title: "Discovery", TitleLower: "discovery", Artist: 0},
		{Title: "OK Computer", TitleLower: "ok computer", Artist: 1},
	}
	c.Songs = []collection.Song{
		{Title: "One More Time", TitleLower: "one more time", Album: 0},
		{Title: "Paranoid Android", TitleLower: "paranoid android", Album: 1},
	}
	return c
}

func TestSimilarityIdenticalIsMax(t *testing.T) {
	if s := similarity("Radiohead", "radiohead"); s != 100 {
		t.Fatalf("expected 100, got %v", s)
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	a, b := similarity("kitten", "sitting"), similarity("sitting", "kitten")
	if a != b {
		t.Fatalf("expected symmetric scores, got %v and %v", a, b)
	}
}

func TestSimilarityMonotonicInPrefix(t *testing.T) {
	shortPrefix := similarity("radio", "radiohead")
	longPrefix := similarity("radiohea", "radiohead")
	if longPrefix <= shortPrefix {
		t.Fatalf("expected longer shared prefix to score higher: %v vs %v", longPrefix, shortPrefix)
	}
}

func TestQueryExactMatchRanksFirst(t *testing.T) {
	idx := Build(sampleCollection())
	kc := idx.Query("radiohead", All)
	if len(kc.Artists) == 0 || kc.Artists[0] != 1 {
		t.Fatalf("expected artist key 1 first, got %v", kc.Artists)
	}
}

func TestQueryTop1ReturnsSingleBest(t *testing.T) {
	idx := Build(sampleCollection())
	kc := idx.Query("daft punk", Top1)
	if len(kc.Artists) != 1 {
		t.Fatalf("expected exactly 1 artist, got %d", len(kc.Artists))
	}
}

func TestQuerySim70FiltersLowScores(t *testing.T) {
	idx := Build(sampleCollection())
	kc := idx.Query("zzzzzzzzzzzzzzz", Sim70)
	if len(kc.Artists) != 0 || len(kc.Albums) != 0 || len(kc.Songs) != 0 {
		t.Fatalf("expected no matches above 70%%, got %+v", kc)
	}
}

func TestQueryResultsResolveInCollection(t *testing.T) {
	c := sampleCollection()
	idx := Build(c)
	kc := idx.Query("a", All)
	for _, k := range kc.Artists {
		if _, ok := c.Artist(k); !ok {
			t.Fatalf("artist key %d does not resolve", k)
		}
	}
}
