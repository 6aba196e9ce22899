package advisor

import (
	_ "embed"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"membank/internal/errors"
)

//go:embed data/catalog.yaml
var catalogYAML []byte

// Stack is one entry in the stack catalog.
type Stack struct {
	// Slug is the stable identifier (matches the doc filename).
	Slug string `yaml:"slug"`

	// Name is the display name.
	Name string `yaml:"name"`

	// Category groups stacks (auth, web, api, db, deploy).
	Category string `yaml:"category"`

	// Doc is the path of the guidance document relative to the bank root.
	Doc string `yaml:"doc"`

	// Tags drive recommendation matching.
	Tags []string `yaml:"tags"`
}

// Catalog is the set of known stacks.
type Catalog struct {
	Stacks []Stack `yaml:"stacks"`
}

// LoadCatalog parses the embedded stack catalog.
func LoadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(catalogYAML, &c); err != nil {
		return nil, errors.Wrap(err, "parsing stack catalog")
	}
	if len(c.Stacks) == 0 {
		return nil, errors.New("stack catalog is empty")
	}
	return &c, nil
}

// Recommendation is a stack with its match score against session tags.
type Recommendation struct {
	Stack Stack

	// Score is the number of session tags the stack's tags matched.
	Score int
}

// Recommend ranks catalog stacks against the given tags.
// Stacks matching no tag are excluded. Within a category only the best
// match is kept, so the result reads as one pick per concern. Ties break
// by name for stable output.
func (c *Catalog) Recommend(tags []string) []Recommendation {
	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	bestByCategory := make(map[string]Recommendation)
	for _, s := range c.Stacks {
		score := 0
		for _, t := range s.Tags {
			if _, ok := tagSet[t]; ok {
				score++
			}
		}
		if score == 0 {
			continue
		}

		cur, ok := bestByCategory[s.Category]
		if !ok || score > cur.Score || (score == cur.Score && s.Name < cur.Stack.Name) {
			bestByCategory[s.Category] = Recommendation{Stack: s, Score: score}
		}
	}

	recs := make([]Recommendation, 0, len(bestByCategory))
	for _, r := range bestByCategory {
		recs = append(recs, r)
	}
	slices.SortFunc(recs, func(a, b Recommendation) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.Stack.Name, b.Stack.Name)
	})

	return recs
}

// Find returns the stack with the given slug.
func (c *Catalog) Find(slug string) (Stack, bool) {
	for _, s := range c.Stacks {
		if s.Slug == slug {
			return s, true
		}
	}
	return Stack{}, false
}
