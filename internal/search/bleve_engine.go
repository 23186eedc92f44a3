package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
)

type bleveEngine struct {
	idx      bleve.Index
	fallback *Engine
}

// NewBleveEngine builds an in-memory index over the catalog. Substring
// matches the index cannot express are filled in from the plain engine.
func NewBleveEngine(catalog *Catalog) (Suggester, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, err
	}

	be := &bleveEngine{idx: idx, fallback: NewEngine(catalog)}
	if err := be.indexAll(catalog.Topics()); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	topic := bleve.NewTextFieldMapping()
	topic.Analyzer = standard.Name
	topic.Store = true
	topic.IncludeTermVectors = true

	category := bleve.NewTextFieldMapping()
	category.Analyzer = standard.Name
	category.Store = true
	category.Index = false

	dm.AddFieldMappingsAt("topic", topic)
	dm.AddFieldMappingsAt("category", category)

	im.DefaultMapping = dm
	return im
}

func (b *bleveEngine) indexAll(topics []Topic) error {
	batch := b.idx.NewBatch()
	for _, t := range topics {
		if err := batch.Index(docIDForTopic(t.Name), map[string]any{
			"topic":    t.Name,
			"category": firstCategory(t),
		}); err != nil {
			return err
		}
	}
	return b.idx.Batch(batch)
}

func (b *bleveEngine) Suggest(query string, limit int) ([]*Suggestion, error) {
	if strings.TrimSpace(query) == "" {
		return b.fallback.Suggest(query, limit)
	}
	if limit <= 0 {
		limit = len(b.fallback.topics)
	}

	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("topic")
		qt.SetBoost(4.0)
		qs = append(qs, qt)
		qtp := bleve.NewPrefixQuery(tok)
		qtp.SetField("topic")
		qtp.SetBoost(3.0)
		qs = append(qs, qtp)
	}

	var out []*Suggestion
	seen := make(map[string]struct{})
	if len(qs) > 0 {
		req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
		req.Fields = []string{"topic", "category"}
		res, err := b.idx.Search(req)
		if err != nil {
			return nil, err
		}
		for _, h := range res.Hits {
			name, _ := h.Fields["topic"].(string)
			if name == "" {
				name = strings.TrimPrefix(h.ID, "topic:")
			}
			category, _ := h.Fields["category"].(string)
			seen[name] = struct{}{}
			out = append(out, &Suggestion{
				Topic:    name,
				Category: category,
				Score:    h.Score,
				Matches:  []Match{{Field: "topic", Text: name, Weight: h.Score}},
			})
		}
	}

	if len(out) < limit {
		extra, err := b.fallback.Suggest(query, limit)
		if err != nil {
			return nil, err
		}
		for _, s := range extra {
			if len(out) == limit {
				break
			}
			if _, dup := seen[s.Topic]; dup {
				continue
			}
			seen[s.Topic] = struct{}{}
			out = append(out, s)
		}
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (b *bleveEngine) Close() error {
	return b.idx.Close()
}

func docIDForTopic(name string) string { return "topic:" + name }

// NewSuggester returns the indexed suggester, falling back to the plain
// engine when the index cannot be built.
func NewSuggester(catalog *Catalog) Suggester {
	if s, err := NewBleveEngine(catalog); err == nil {
		return s
	}
	return NewEngine(catalog)
}
