package usecase

import (
	"sort"

	apperrors "github.com/allisson/fieldcrypt/internal/errors"
	"github.com/allisson/fieldcrypt/internal/reencryption/domain"
)

// Catalog is the explicit registration list of models visible to the
// reencryption engine. The container builds it at startup; it is read-only
// afterwards.
type Catalog struct {
	sources []ModelSource
	byName  map[string]ModelSource
}

// NewCatalog creates an empty model catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]ModelSource)}
}

// Register adds a model source, rejecting duplicate names.
func (c *Catalog) Register(source ModelSource) error {
	if _, ok := c.byName[source.Name()]; ok {
		return apperrors.Wrapf(domain.ErrDuplicateModel, "model %q", source.Name())
	}
	c.sources = append(c.sources, source)
	c.byName[source.Name()] = source
	return nil
}

// Sources returns the registered sources sorted by name.
func (c *Catalog) Sources() []ModelSource {
	out := make([]ModelSource, len(c.sources))
	copy(out, c.sources)
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered models.
func (c *Catalog) Len() int {
	return len(c.sources)
}
