package catalog

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rapidex/rescache/cache"
	"github.com/rapidex/rescache/errors"
)

// Category is one menu category of an establishment.
type Category struct {
	ID              int64     `json:"id"`
	EstablishmentID int64     `json:"establishment_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Active          bool      `json:"active"`
	SortOrder       int       `json:"sort_order"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CategoryLoader fetches categories from the backing API when the cache
// cannot serve them.
type CategoryLoader interface {
	Categories(ctx context.Context, establishmentID int64) ([]Category, error)
}

// Catalog is the typed category layer over the generic cache. Entries are
// stored as raw JSON so lists, single categories, and filtered views share
// one cache (and one persistence record).
//
// Priorities follow access patterns: single categories are kept hard
// (high), lists are normal, filtered views are cheap to rebuild (low).
type Catalog struct {
	cache  *cache.Cache[json.RawMessage]
	loader CategoryLoader
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLoader supplies the backend used by LoadCategories and
// WarmEstablishments.
func WithLoader(l CategoryLoader) Option {
	return func(c *Catalog) { c.loader = l }
}

// New wraps an existing cache. The catalog does not own the cache's
// lifecycle; callers close it where they created it.
func New(c *cache.Cache[json.RawMessage], options ...Option) *Catalog {
	ct := &Catalog{cache: c}
	for _, opt := range options {
		opt(ct)
	}
	return ct
}

// Categories returns the cached category list for an establishment.
func (ct *Catalog) Categories(establishmentID int64) ([]Category, bool) {
	return decodeHit[[]Category](ct.cache.Get(ListKey(establishmentID)))
}

// SetCategories caches the full category list for an establishment.
func (ct *Catalog) SetCategories(establishmentID int64, categories []Category) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return errors.WrapInvalid(err, "catalog", "SetCategories", "encode category list")
	}
	return ct.cache.Set(ListKey(establishmentID), raw,
		cache.WithTags(EstablishmentTag(establishmentID), listTag(establishmentID)))
}

// Category returns one cached category.
func (ct *Catalog) Category(establishmentID, categoryID int64) (Category, bool) {
	return decodeHit[Category](ct.cache.Get(DetailKey(establishmentID, categoryID)))
}

// SetCategory caches a single category at high priority so it survives
// capacity pressure and, when persistence is enabled, restarts.
func (ct *Catalog) SetCategory(category Category) error {
	raw, err := json.Marshal(category)
	if err != nil {
		return errors.WrapInvalid(err, "catalog", "SetCategory", "encode category")
	}
	return ct.cache.Set(DetailKey(category.EstablishmentID, category.ID), raw,
		cache.WithPriority(cache.PriorityHigh),
		cache.WithTags(EstablishmentTag(category.EstablishmentID)))
}

// Filtered returns a cached filtered view.
func (ct *Catalog) Filtered(establishmentID int64, filter string) ([]Category, bool) {
	return decodeHit[[]Category](ct.cache.Get(FilterKey(establishmentID, filter)))
}

// SetFiltered caches a filtered view at low priority: these are derived
// data and the first candidates for eviction.
func (ct *Catalog) SetFiltered(establishmentID int64, filter string, categories []Category) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return errors.WrapInvalid(err, "catalog", "SetFiltered", "encode filtered view")
	}
	return ct.cache.Set(FilterKey(establishmentID, filter), raw,
		cache.WithPriority(cache.PriorityLow),
		cache.WithTags(EstablishmentTag(establishmentID), listTag(establishmentID)))
}

// ActiveCategories returns the active subset of the cached list, in sort
// order as cached. The second return is false when the list is not cached.
func (ct *Catalog) ActiveCategories(establishmentID int64) ([]Category, bool) {
	all, ok := ct.Categories(establishmentID)
	if !ok {
		return nil, false
	}
	active := make([]Category, 0, len(all))
	for _, c := range all {
		if c.Active {
			active = append(active, c)
		}
	}
	return active, true
}

// InvalidateEstablishment drops every cached entry of one establishment.
// Returns the number of entries removed.
func (ct *Catalog) InvalidateEstablishment(establishmentID int64) int {
	return ct.cache.InvalidateByTag(EstablishmentTag(establishmentID))
}

// InvalidateCategory drops one category and every list or filtered view
// that may contain it. Detail entries of sibling categories stay cached.
func (ct *Catalog) InvalidateCategory(establishmentID, categoryID int64) int {
	removed := 0
	if ct.cache.Invalidate(DetailKey(establishmentID, categoryID)) {
		removed++
	}
	return removed + ct.cache.InvalidateByTag(listTag(establishmentID))
}

// LoadCategories returns the category list, fetching it through the
// loader on a miss. Concurrent loads for one establishment collapse into
// a single backend call.
func (ct *Catalog) LoadCategories(ctx context.Context, establishmentID int64) ([]Category, error) {
	if ct.loader == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "catalog", "LoadCategories", "no loader configured")
	}

	raw, err := ct.cache.GetOrLoad(ctx, ListKey(establishmentID),
		func(ctx context.Context) (json.RawMessage, error) {
			categories, err := ct.loader.Categories(ctx, establishmentID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(categories)
		},
		cache.WithTags(EstablishmentTag(establishmentID), listTag(establishmentID)))
	if err != nil {
		return nil, err
	}

	var categories []Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, errors.Wrap(err, "catalog", "LoadCategories", "decode category list")
	}
	return categories, nil
}

// WarmEstablishments pre-loads the category lists of the given
// establishments, skipping ones already cached. The first loader error
// cancels the remaining loads.
func (ct *Catalog) WarmEstablishments(ctx context.Context, establishmentIDs ...int64) error {
	if ct.loader == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "catalog", "WarmEstablishments", "no loader configured")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, id := range establishmentIDs {
		g.Go(func() error {
			_, err := ct.LoadCategories(ctx, id)
			return err
		})
	}
	return g.Wait()
}

// decodeHit decodes a raw cache hit into T. A decode failure is treated
// as a miss; the entry will be overwritten by the next Set.
func decodeHit[T any](raw json.RawMessage, ok bool) (T, bool) {
	var value T
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false
	}
	return value, true
}
