package scene

import (
	"sort"

	"github.com/pointofvision/server/internal/vision"
)

// Source is one registered vision source: a primary token source or one of
// its sample-point auxiliaries.
type Source struct {
	Key     string
	TokenID string
	X       float64
	Y       float64
	Slot    int
	Emission
	Sight vision.Sight
}

// SourceSet is a keyed collection of active vision sources for one canvas.
type SourceSet struct {
	m map[string]*Source
}

func NewSourceSet() *SourceSet {
	return &SourceSet{m: make(map[string]*Source, 32)}
}

func (s *SourceSet) Get(key string) (*Source, bool) {
	src, ok := s.m[key]
	return src, ok
}

func (s *SourceSet) Has(key string) bool {
	_, ok := s.m[key]
	return ok
}

func (s *SourceSet) Set(src *Source) {
	s.m[src.Key] = src
}

func (s *SourceSet) Delete(key string) {
	delete(s.m, key)
}

func (s *SourceSet) Len() int {
	return len(s.m)
}

// DeleteFamily removes a token's primary source and every auxiliary built
// from it. Sources of other tokens whose ids merely share a prefix, such as
// "a" and "a-1", are left alone.
func (s *SourceSet) DeleteFamily(tokenID string) int {
	n := 0
	for k, src := range s.m {
		if src.TokenID == tokenID {
			delete(s.m, k)
			n++
		}
	}
	return n
}

// Keys returns all keys in lexical order.
func (s *SourceSet) Keys() []string {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sights collects the regions of every source.
func (s *SourceSet) Sights() []vision.Sight {
	out := make([]vision.Sight, 0, len(s.m))
	for _, src := range s.m {
		out = append(out, src.Sight)
	}
	return out
}
