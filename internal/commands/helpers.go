package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mzansiplatess/plates-cli/internal/appctx"
	"github.com/mzansiplatess/plates-cli/internal/completion"
	"github.com/mzansiplatess/plates-cli/internal/data"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// appFrom returns the app stored in the command context.
func appFrom(cmd *cobra.Command) (*appctx.App, error) {
	app := appctx.FromContext(cmd.Context())
	if app == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return app, nil
}

// searchFlags binds the shared list filters onto fs.
type searchFlags struct {
	query     string
	category  string
	city      string
	minRating float64
	maxPrice  float64
	tags      []string
	page      int
	limit     int
	sortBy    string
	sortOrder string
}

func (f *searchFlags) register(fs *pflag.FlagSet, withPrice bool) {
	fs.StringVarP(&f.query, "query", "s", "", "Search text")
	fs.StringVar(&f.category, "category", "", "Only this category")
	fs.StringVar(&f.city, "city", "", "Only this city")
	fs.Float64Var(&f.minRating, "min-rating", 0, "Minimum rating (0-5)")
	if withPrice {
		fs.Float64Var(&f.maxPrice, "max-price", 0, "Maximum price in rand")
	}
	fs.StringSliceVar(&f.tags, "tag", nil, "Only items carrying this tag (repeatable)")
	fs.IntVar(&f.page, "page", 0, "Page number")
	fs.IntVarP(&f.limit, "limit", "n", 0, "Items per page")
	fs.StringVar(&f.sortBy, "sort", "", "Sort by rating, price, distance or createdAt")
	fs.StringVar(&f.sortOrder, "order", "", "Sort order, asc or desc")
}

func (f *searchFlags) params() (models.SearchParams, error) {
	if f.minRating < 0 || f.minRating > 5 {
		return models.SearchParams{}, output.ErrUsage("--min-rating must be between 0 and 5")
	}
	if f.page < 0 || f.limit < 0 {
		return models.SearchParams{}, output.ErrUsage("--page and --limit must not be negative")
	}
	switch f.sortOrder {
	case "", "asc", "desc":
	default:
		return models.SearchParams{}, output.ErrUsageHint("Invalid sort order: "+f.sortOrder, "Use asc or desc")
	}
	return models.SearchParams{
		Query:     f.query,
		Category:  f.category,
		City:      f.city,
		MinRating: f.minRating,
		MaxPrice:  f.maxPrice,
		Tags:      f.tags,
		Page:      f.page,
		Limit:     f.limit,
		SortBy:    f.sortBy,
		SortOrder: f.sortOrder,
	}, nil
}

// loadPool runs one fetch through pool and returns its data. A failure
// with nothing to show returns the underlying error so the exit code
// matches its class; a failure over earlier data returns that data with
// the error as a notice.
func loadPool[T any](ctx context.Context, pool *data.Pool[T]) ([]T, []output.ResponseOption, error) {
	state := pool.Load(ctx)
	msg, failed := state.ErrorMessage()
	if !failed {
		return state.Data, nil, nil
	}
	if !state.HasData() {
		if cause := state.Cause(); cause != nil {
			return nil, nil, cause
		}
		return nil, nil, output.ErrAPI(0, msg)
	}
	return state.Data, []output.ResponseOption{output.WithNotice("Showing earlier results: " + msg)}, nil
}

// completer serves shell completions from the ID cache.
var completer = completion.NewCompleter(nil)

// rememberIDs adds listed items to the completion cache. Cache failures
// are logged and otherwise ignored.
func rememberIDs[T any](app *appctx.App, kind completion.Kind, items []T, entry func(T) completion.Entry) {
	entries := make([]completion.Entry, len(items))
	for i, it := range items {
		entries[i] = entry(it)
	}
	if err := completion.NewStore(app.Config.DataDir).Merge(kind, entries); err != nil {
		app.Log.WithError(err).WithField("kind", kind).Debug("completion cache not updated")
	}
}

// parsePosition parses a 1-based list position.
func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return 0, output.ErrUsageHint("Invalid item number: "+arg, "Use the number shown by: plates shopping list")
	}
	return n, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
