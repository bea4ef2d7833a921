package query

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownFacet      = errors.New("unknown facet")
	ErrUnknownFacetValue = errors.New("unknown facet value")
)

var reservedKeys = map[string]struct{}{"keywords": {}, "page": {}, "size": {}}

// FacetOption describes one selectable value of a facet.
type FacetOption struct {
	Value string
	Label string
	Color string
}

// Facet is a named filter dimension with a closed list of values.
type Facet struct {
	Key     string
	Label   string
	Options []FacetOption
}

// Describe returns the descriptor for a raw value. Matching ignores case so
// server values like "active" resolve to "ACTIVE". Unknown values get a
// plain descriptor labelled with the value itself.
func (f Facet) Describe(value string) FacetOption {
	trimmed := strings.TrimSpace(value)
	for _, opt := range f.Options {
		if strings.EqualFold(opt.Value, trimmed) {
			return opt
		}
	}
	if trimmed == "" {
		return FacetOption{Label: "-"}
	}
	return FacetOption{Value: trimmed, Label: trimmed}
}

// Has reports whether value is AllValue or one of the facet's options.
func (f Facet) Has(value string) bool {
	if value == AllValue {
		return true
	}
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Next returns the value after current in the cycle all → options… → all.
func (f Facet) Next(current string) string {
	if len(f.Options) == 0 {
		return AllValue
	}
	if current == "" || current == AllValue {
		return f.Options[0].Value
	}
	for i, opt := range f.Options {
		if opt.Value == current {
			if i+1 < len(f.Options) {
				return f.Options[i+1].Value
			}
			return AllValue
		}
	}
	return AllValue
}

// FacetSet is the closed set of facets a query accepts.
type FacetSet struct {
	facets []Facet
	index  map[string]int
}

// NewFacetSet validates and indexes facets.
func NewFacetSet(facets ...Facet) (*FacetSet, error) {
	set := &FacetSet{index: make(map[string]int, len(facets))}
	for _, f := range facets {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			return nil, fmt.Errorf("facet key is empty")
		}
		if _, ok := reservedKeys[key]; ok {
			return nil, fmt.Errorf("facet key %q is reserved", key)
		}
		if _, dup := set.index[key]; dup {
			return nil, fmt.Errorf("duplicate facet %q", key)
		}
		f.Key = key
		set.index[key] = len(set.facets)
		set.facets = append(set.facets, f)
	}
	return set, nil
}

// MustFacetSet is NewFacetSet for static declarations.
func MustFacetSet(facets ...Facet) *FacetSet {
	set, err := NewFacetSet(facets...)
	if err != nil {
		panic(err)
	}
	return set
}

// Lookup returns the facet with the given key.
func (s *FacetSet) Lookup(key string) (Facet, bool) {
	if s == nil {
		return Facet{}, false
	}
	i, ok := s.index[key]
	if !ok {
		return Facet{}, false
	}
	return s.facets[i], true
}

// Facets returns the facets in declaration order.
func (s *FacetSet) Facets() []Facet {
	if s == nil {
		return nil
	}
	out := make([]Facet, len(s.facets))
	copy(out, s.facets)
	return out
}

// Validate checks that every key and value in selections is declared. A nil
// set accepts anything.
func (s *FacetSet) Validate(selections map[string][]string) error {
	if s == nil {
		return nil
	}
	for key, values := range selections {
		f, ok := s.Lookup(key)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownFacet, key)
		}
		for _, v := range values {
			if !f.Has(v) {
				return fmt.Errorf("%w: %s=%q", ErrUnknownFacetValue, key, v)
			}
		}
	}
	return nil
}
