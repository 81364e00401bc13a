package data

import (
	"context"
	"time"

	"github.com/mzansiplatess/plates-cli/internal/models"
)

// Source is the remote collaborator the Hub loads from.
type Source interface {
	Restaurants(ctx context.Context, params models.SearchParams) ([]models.Restaurant, error)
	Recipes(ctx context.Context, params models.SearchParams) ([]models.Recipe, error)
	Events(ctx context.Context, params models.SearchParams) ([]models.Event, error)
	Favourites(ctx context.Context, itemType models.FavouriteType) ([]models.Favourite, error)
}

// DefaultFreshTTL is how long browsed lists are reused before FetchIfStale
// goes back to the server.
const DefaultFreshTTL = 2 * time.Minute

// maxSearchPools bounds the number of filtered lists kept per collection.
const maxSearchPools = 16

// Hub owns the pools for every collection the app browses.
type Hub struct {
	restaurants *KeyedPool[string, models.Restaurant]
	recipes     *KeyedPool[string, models.Recipe]
	events      *KeyedPool[string, models.Event]
	favourites  *KeyedPool[models.FavouriteType, models.Favourite]
	src         Source
	config      PoolConfig
	opts        []Option
}

// NewHub creates a Hub reading from src.
func NewHub(src Source, config PoolConfig, opts ...Option) *Hub {
	h := &Hub{src: src, config: config, opts: opts}
	h.restaurants = NewKeyedPool[string, models.Restaurant](maxSearchPools, nil)
	h.recipes = NewKeyedPool[string, models.Recipe](maxSearchPools, nil)
	h.events = NewKeyedPool[string, models.Event](maxSearchPools, nil)
	h.favourites = NewKeyedPool(0, func(t models.FavouriteType) *Pool[models.Favourite] {
		return NewPool(poolKey("favourites", string(t)), h.config, func(ctx context.Context) ([]models.Favourite, error) {
			return h.src.Favourites(ctx, t)
		}, h.opts...)
	})
	return h
}

// Restaurants returns the pool for the given filter.
func (h *Hub) Restaurants(params models.SearchParams) *Pool[models.Restaurant] {
	key := params.Key()
	return h.restaurants.GetOrCreate(key, func() *Pool[models.Restaurant] {
		return NewPool(poolKey("restaurants", key), h.config, func(ctx context.Context) ([]models.Restaurant, error) {
			return h.src.Restaurants(ctx, params)
		}, h.opts...)
	})
}

// Recipes returns the pool for the given filter.
func (h *Hub) Recipes(params models.SearchParams) *Pool[models.Recipe] {
	key := params.Key()
	return h.recipes.GetOrCreate(key, func() *Pool[models.Recipe] {
		return NewPool(poolKey("recipes", key), h.config, func(ctx context.Context) ([]models.Recipe, error) {
			return h.src.Recipes(ctx, params)
		}, h.opts...)
	})
}

// Events returns the pool for the given filter.
func (h *Hub) Events(params models.SearchParams) *Pool[models.Event] {
	key := params.Key()
	return h.events.GetOrCreate(key, func() *Pool[models.Event] {
		return NewPool(poolKey("events", key), h.config, func(ctx context.Context) ([]models.Event, error) {
			return h.src.Events(ctx, params)
		}, h.opts...)
	})
}

// Favourites returns the pool of the signed-in user's favourites of one
// type, or of all types when itemType is empty.
func (h *Hub) Favourites(itemType models.FavouriteType) *Pool[models.Favourite] {
	return h.favourites.Get(itemType)
}

// InvalidateFavourites marks every favourites pool stale after a change.
func (h *Hub) InvalidateFavourites() {
	h.favourites.Invalidate()
}

// Clear drops every pool, discarding in-flight results. Used on sign-out.
func (h *Hub) Clear() {
	h.restaurants.Clear()
	h.recipes.Clear()
	h.events.Clear()
	h.favourites.Clear()
}

func poolKey(collection, query string) string {
	if query == "" {
		return collection
	}
	return collection + "?" + query
}
