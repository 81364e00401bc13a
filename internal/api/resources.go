package api

import (
	"context"
	"net/url"
	"time"

	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// observe runs fn as one typed operation, reporting it to the hooks.
func observe[T any](ctx context.Context, c *Client, op OperationInfo, fn func(context.Context) (T, error)) (T, error) {
	ctx = c.hooks.OnOperationStart(ctx, op)
	start := time.Now()
	v, err := fn(ctx)
	c.hooks.OnOperationEnd(ctx, op, err, time.Since(start))
	return v, err
}

func list[T any](ctx context.Context, c *Client, op OperationInfo, path string, query url.Values) ([]T, error) {
	return observe(ctx, c, op, func(ctx context.Context) ([]T, error) {
		body, err := c.Get(ctx, path, query)
		if err != nil {
			return nil, err
		}
		return decodeList[T](body)
	})
}

func one[T any](ctx context.Context, c *Client, op OperationInfo, resource, id string) (*T, error) {
	if id == "" {
		return nil, output.ErrUsage(resource + " ID required")
	}
	return observe(ctx, c, op, func(ctx context.Context) (*T, error) {
		body, err := c.Get(ctx, "/"+op.Resource+"/"+url.PathEscape(id), nil)
		if err != nil {
			if e := output.AsError(err); e.Code == output.CodeNotFound {
				nf := output.ErrNotFound(resource, id)
				nf.Cause = err
				return nil, nf
			}
			return nil, err
		}
		return decodeOne[T](body)
	})
}

// Restaurants lists restaurants matching params.
func (c *Client) Restaurants(ctx context.Context, params models.SearchParams) ([]models.Restaurant, error) {
	op := OperationInfo{Name: "ListRestaurants", Resource: "restaurants"}
	return list[models.Restaurant](ctx, c, op, "/restaurants", params.Values())
}

// Restaurant fetches one restaurant by ID.
func (c *Client) Restaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	op := OperationInfo{Name: "GetRestaurant", Resource: "restaurants"}
	return one[models.Restaurant](ctx, c, op, "Restaurant", id)
}

// Recipes lists recipes matching params.
func (c *Client) Recipes(ctx context.Context, params models.SearchParams) ([]models.Recipe, error) {
	op := OperationInfo{Name: "ListRecipes", Resource: "recipes"}
	return list[models.Recipe](ctx, c, op, "/recipes", params.Values())
}

// Recipe fetches one recipe by ID.
func (c *Client) Recipe(ctx context.Context, id string) (*models.Recipe, error) {
	op := OperationInfo{Name: "GetRecipe", Resource: "recipes"}
	return one[models.Recipe](ctx, c, op, "Recipe", id)
}

// Events lists events matching params.
func (c *Client) Events(ctx context.Context, params models.SearchParams) ([]models.Event, error) {
	op := OperationInfo{Name: "ListEvents", Resource: "events"}
	return list[models.Event](ctx, c, op, "/events", params.Values())
}

// Event fetches one event by ID.
func (c *Client) Event(ctx context.Context, id string) (*models.Event, error) {
	op := OperationInfo{Name: "GetEvent", Resource: "events"}
	return one[models.Event](ctx, c, op, "Event", id)
}

// Favourites lists the signed-in user's favourites, optionally filtered by
// type. An empty itemType lists all of them.
func (c *Client) Favourites(ctx context.Context, itemType models.FavouriteType) ([]models.Favourite, error) {
	op := OperationInfo{Name: "ListFavourites", Resource: "favourites"}
	var query url.Values
	if itemType != "" {
		query = url.Values{"type": {string(itemType)}}
	}
	return list[models.Favourite](ctx, c, op, "/favourites", query)
}

// AddFavourite marks an item as a favourite.
func (c *Client) AddFavourite(ctx context.Context, itemType models.FavouriteType, itemID string) (*models.Favourite, error) {
	if itemID == "" {
		return nil, output.ErrUsage("Item ID required")
	}
	op := OperationInfo{Name: "AddFavourite", Resource: "favourites"}
	return observe(ctx, c, op, func(ctx context.Context) (*models.Favourite, error) {
		body, err := c.Post(ctx, "/favourites", map[string]string{
			"itemType": string(itemType),
			"itemId":   itemID,
		})
		if err != nil {
			return nil, err
		}
		return decodeOne[models.Favourite](body)
	})
}

// RemoveFavourite deletes a favourite by its own ID.
func (c *Client) RemoveFavourite(ctx context.Context, id string) error {
	if id == "" {
		return output.ErrUsage("Favourite ID required")
	}
	op := OperationInfo{Name: "RemoveFavourite", Resource: "favourites"}
	_, err := observe(ctx, c, op, func(ctx context.Context) (struct{}, error) {
		_, err := c.Delete(ctx, "/favourites/"+url.PathEscape(id))
		return struct{}{}, err
	})
	return err
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	op := OperationInfo{Name: "CreateUser", Resource: "users"}
	return observe(ctx, c, op, func(ctx context.Context) (*models.User, error) {
		body, err := c.Post(ctx, "/users", user)
		if err != nil {
			return nil, err
		}
		return decodeOne[models.User](body)
	})
}
