package completion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mzansiplatess/plates-cli/internal/models"
)

// Source lists the collections the cache mirrors.
type Source interface {
	Restaurants(ctx context.Context, params models.SearchParams) ([]models.Restaurant, error)
	Recipes(ctx context.Context, params models.SearchParams) ([]models.Recipe, error)
	Events(ctx context.Context, params models.SearchParams) ([]models.Event, error)
}

// refreshLimit is the page size asked for on refresh.
const refreshLimit = 100

// RefreshResult reports the outcome per kind.
type RefreshResult struct {
	Counts map[Kind]int
	Errors map[Kind]error
}

// HasError reports whether any kind failed.
func (r RefreshResult) HasError() bool { return len(r.Errors) > 0 }

// Failed reports whether every kind failed.
func (r RefreshResult) Failed() bool { return len(r.Errors) == len(Kinds) }

// Err joins the per-kind failures, or returns nil.
func (r RefreshResult) Err() error {
	var errs []error
	for _, k := range Kinds {
		if err := r.Errors[k]; err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errors.Join(errs...)
}

// Refresher reloads the cache from a Source.
type Refresher struct {
	store *Store
	src   Source
}

// NewRefresher returns a Refresher writing to store.
func NewRefresher(store *Store, src Source) *Refresher {
	return &Refresher{store: store, src: src}
}

// RefreshAll fetches every kind concurrently and replaces the cached
// entries of each kind that succeeded. Failed kinds keep their old entries.
func (r *Refresher) RefreshAll(ctx context.Context) RefreshResult {
	params := models.SearchParams{Limit: refreshLimit}
	fetchers := map[Kind]func(context.Context) ([]Entry, error){
		KindRestaurants: func(ctx context.Context) ([]Entry, error) {
			list, err := r.src.Restaurants(ctx, params)
			return toEntries(list, func(v models.Restaurant) Entry { return Entry{ID: v.ID, Name: v.Name} }), err
		},
		KindRecipes: func(ctx context.Context) ([]Entry, error) {
			list, err := r.src.Recipes(ctx, params)
			return toEntries(list, func(v models.Recipe) Entry { return Entry{ID: v.ID, Name: v.Name} }), err
		},
		KindEvents: func(ctx context.Context) ([]Entry, error) {
			list, err := r.src.Events(ctx, params)
			return toEntries(list, func(v models.Event) Entry { return Entry{ID: v.ID, Name: v.Name} }), err
		},
	}

	result := RefreshResult{Counts: map[Kind]int{}, Errors: map[Kind]error{}}
	fetched := make([][]Entry, len(Kinds))
	errs := make([]error, len(Kinds))
	var wg sync.WaitGroup
	for i, kind := range Kinds {
		fetch := fetchers[kind]
		wg.Go(func() {
			fetched[i], errs[i] = fetch(ctx)
		})
	}
	wg.Wait()

	// Writes go one at a time so they never contend for the file lock.
	for i, kind := range Kinds {
		err := errs[i]
		if err == nil {
			err = r.store.Replace(kind, fetched[i])
		}
		if err != nil {
			result.Errors[kind] = err
			continue
		}
		result.Counts[kind] = len(fetched[i])
	}
	return result
}

func toEntries[T any](list []T, entry func(T) Entry) []Entry {
	out := make([]Entry, len(list))
	for i, v := range list {
		out[i] = entry(v)
	}
	return out
}
