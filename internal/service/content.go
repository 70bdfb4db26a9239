// Package service holds the portfolio's business logic.
//
// Handlers call services; services call the content store through the
// repository.ContentStore interface and never see SQL or HTTP.
//
//	handler → ContentService / SessionGate / Editor → ContentStore
//
// Documents are flat JSON objects in the store, while the rest of the code
// works with the typed structs from internal/model. Singleton and Collection
// do that translation once, generically, for every entity.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/repository"
)

// Singleton is a document that lives at a fixed (collection, id).
type Singleton[T any] struct {
	store      repository.ContentStore
	collection string
	id         string
	fallback   func() T
}

func NewSingleton[T any](store repository.ContentStore, collection, id string, fallback func() T) *Singleton[T] {
	return &Singleton[T]{store: store, collection: collection, id: id, fallback: fallback}
}

// Load returns the stored value and whether it exists.
// A missing document is not an error.
func (s *Singleton[T]) Load(ctx context.Context) (T, bool, error) {
	var zero T

	doc, err := s.store.Get(ctx, s.collection, s.id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("loading %s/%s: %w", s.collection, s.id, err)
	}

	v, err := fromFields[T](doc.Fields)
	if err != nil {
		return zero, false, fmt.Errorf("decoding %s/%s: %w", s.collection, s.id, err)
	}
	return v, true, nil
}

// LoadOrFallback returns the stored value, or the hardcoded default when
// the document does not exist.
func (s *Singleton[T]) LoadOrFallback(ctx context.Context) (T, error) {
	v, found, err := s.Load(ctx)
	if err != nil {
		return v, err
	}
	if !found && s.fallback != nil {
		return s.fallback(), nil
	}
	return v, nil
}

// Save overwrites the whole document.
func (s *Singleton[T]) Save(ctx context.Context, v T) error {
	fields, err := toFields(v)
	if err != nil {
		return fmt.Errorf("encoding %s/%s: %w", s.collection, s.id, err)
	}
	if err := s.store.Set(ctx, s.collection, s.id, fields); err != nil {
		return fmt.Errorf("saving %s/%s: %w", s.collection, s.id, err)
	}
	return nil
}

// Collection is a set of documents with store-assigned ids.
//
// The item's id is not part of its document body, so Collection needs to
// know how to read and set it on T.
type Collection[T any] struct {
	store    repository.ContentStore
	name     string
	fallback func() []T
	idOf     func(T) string
	withID   func(T, string) T
}

func NewCollection[T any](
	store repository.ContentStore,
	name string,
	fallback func() []T,
	idOf func(T) string,
	withID func(T, string) T,
) *Collection[T] {
	return &Collection[T]{store: store, name: name, fallback: fallback, idOf: idOf, withID: withID}
}

// List returns every item with its id filled in, in store order.
func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	docs, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", c.name, err)
	}

	items := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := fromFields[T](d.Fields)
		if err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", c.name, d.ID, err)
		}
		items = append(items, c.withID(v, d.ID))
	}
	return items, nil
}

// ListOrFallback substitutes the sample items when the collection is empty.
func (c *Collection[T]) ListOrFallback(ctx context.Context) ([]T, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 && c.fallback != nil {
		return c.fallback(), nil
	}
	return items, nil
}

// Create stores v as a new document and returns it with the assigned id.
func (c *Collection[T]) Create(ctx context.Context, v T) (T, error) {
	fields, err := c.body(v)
	if err != nil {
		return v, err
	}
	id, err := c.store.Add(ctx, c.name, fields)
	if err != nil {
		return v, fmt.Errorf("adding to %s: %w", c.name, err)
	}
	return c.withID(v, id), nil
}

// Update writes every field of v except the id onto the existing document.
func (c *Collection[T]) Update(ctx context.Context, v T) error {
	id := c.idOf(v)
	if id == "" {
		return apperror.ValidationFailed("id", "id is required")
	}
	fields, err := c.body(v)
	if err != nil {
		return err
	}
	if err := c.store.Update(ctx, c.name, id, fields); err != nil {
		return fmt.Errorf("updating %s/%s: %w", c.name, id, err)
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, c.name, id); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", c.name, id, err)
	}
	return nil
}

// body encodes v without its id.
func (c *Collection[T]) body(v T) (repository.Fields, error) {
	fields, err := toFields(c.withID(v, ""))
	if err != nil {
		return nil, fmt.Errorf("encoding %s item: %w", c.name, err)
	}
	delete(fields, "id")
	return fields, nil
}

func toFields(v any) (repository.Fields, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := repository.Fields{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// fromFields decodes a document into T. Unknown fields are ignored and
// missing ones stay zero, matching how loosely the store is written.
func fromFields[T any](fields repository.Fields) (T, error) {
	var v T
	b, err := json.Marshal(fields)
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(b, &v)
	return v, err
}

// ContentService groups the typed accessors for every portfolio section.
type ContentService struct {
	Hero         *Singleton[model.Hero]
	CV           *Singleton[model.CV]
	Footer       *Singleton[model.Footer]
	Security     *Singleton[model.SecuritySetting]
	Certificates *Collection[model.Certificate]
	Experience   *Collection[model.Experience]

	logger *slog.Logger
}

func NewContentService(store repository.ContentStore, logger *slog.Logger) *ContentService {
	return &ContentService{
		Hero:     NewSingleton(store, model.CollectionHero, model.MainID, model.FallbackHero),
		CV:       NewSingleton(store, model.CollectionCV, model.MainID, model.FallbackCV),
		Footer:   NewSingleton(store, model.CollectionFooter, model.MainID, model.FallbackFooter),
		Security: NewSingleton[model.SecuritySetting](store, model.CollectionSettings, model.SecurityID, nil),
		Certificates: NewCollection(store, model.CollectionCertificates, model.FallbackCertificates,
			func(c model.Certificate) string { return c.ID },
			func(c model.Certificate, id string) model.Certificate { c.ID = id; return c },
		),
		Experience: NewCollection(store, model.CollectionExperience, model.FallbackExperience,
			func(e model.Experience) string { return e.ID },
			func(e model.Experience, id string) model.Experience { e.ID = id; return e },
		),
		logger: logger,
	}
}

// Page is everything the public page shows. A nil field means that section
// failed to load and is left out; the other sections are unaffected.
type Page struct {
	Hero         *model.Hero
	Certificates []model.Certificate
	Experience   []model.Experience
	CV           *model.CV
	Footer       *model.Footer
}

// PublicPage loads the five sections independently. Absent content is
// replaced by the fallback; a failing section is logged and omitted.
func (s *ContentService) PublicPage(ctx context.Context) Page {
	var p Page

	if v, err := s.Hero.LoadOrFallback(ctx); err != nil {
		s.logSectionError("hero", err)
	} else {
		p.Hero = &v
	}

	if v, err := s.Certificates.ListOrFallback(ctx); err != nil {
		s.logSectionError("certificates", err)
	} else {
		p.Certificates = v
	}

	if v, err := s.Experience.ListOrFallback(ctx); err != nil {
		s.logSectionError("experience", err)
	} else {
		p.Experience = v
	}

	if v, err := s.CV.LoadOrFallback(ctx); err != nil {
		s.logSectionError("cv", err)
	} else {
		p.CV = &v
	}

	if v, err := s.Footer.LoadOrFallback(ctx); err != nil {
		s.logSectionError("footer", err)
	} else {
		p.Footer = &v
	}

	return p
}

func (s *ContentService) logSectionError(section string, err error) {
	s.logger.Error("failed to load section",
		slog.String("section", section),
		slog.String("error", err.Error()),
	)
}

// SeedReport counts what Seed wrote.
type SeedReport struct {
	Singletons int
	Items      int
}

// Seed writes the fallback content as real documents so the admin starts
// from the same text visitors already see. Existing documents and
// non-empty collections are left alone.
func (s *ContentService) Seed(ctx context.Context) (SeedReport, error) {
	var r SeedReport

	wrote, err := seedSingleton(ctx, s.Hero)
	if err != nil {
		return r, err
	}
	r.Singletons += wrote

	wrote, err = seedSingleton(ctx, s.CV)
	if err != nil {
		return r, err
	}
	r.Singletons += wrote

	wrote, err = seedSingleton(ctx, s.Footer)
	if err != nil {
		return r, err
	}
	r.Singletons += wrote

	n, err := seedCollection(ctx, s.Certificates)
	if err != nil {
		return r, err
	}
	r.Items += n

	n, err = seedCollection(ctx, s.Experience)
	if err != nil {
		return r, err
	}
	r.Items += n

	s.logger.Info("seed complete",
		slog.Int("singletons", r.Singletons),
		slog.Int("items", r.Items),
	)
	return r, nil
}

func seedSingleton[T any](ctx context.Context, s *Singleton[T]) (int, error) {
	_, found, err := s.Load(ctx)
	if err != nil || found {
		return 0, err
	}
	if err := s.Save(ctx, s.fallback()); err != nil {
		return 0, err
	}
	return 1, nil
}

func seedCollection[T any](ctx context.Context, c *Collection[T]) (int, error) {
	existing, err := c.List(ctx)
	if err != nil || len(existing) > 0 {
		return 0, err
	}
	n := 0
	for _, item := range c.fallback() {
		if _, err := c.Create(ctx, item); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
