package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/completion"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// NewRestaurantsCmd creates the restaurants command group.
func NewRestaurantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "restaurants",
		Aliases: []string{"restaurant", "eat"},
		Short:   "Browse restaurants",
		Long:    "Find restaurants by city, rating or name.",
	}
	list := newRestaurantsListCmd()
	cmd.RunE = list.RunE
	cmd.Flags().AddFlagSet(list.Flags())
	cmd.AddCommand(list, newRestaurantsShowCmd())
	return cmd
}

func newRestaurantsListCmd() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List restaurants",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			params, err := f.params()
			if err != nil {
				return err
			}

			restaurants, opts, err := loadPool(cmd.Context(), app.Hub.Restaurants(params))
			if err != nil {
				return err
			}
			rememberIDs(app, completion.KindRestaurants, restaurants, func(r models.Restaurant) completion.Entry {
				return completion.Entry{ID: r.ID, Name: r.Name}
			})

			opts = append(opts,
				output.WithSummary(plural(len(restaurants), "restaurant", "restaurants")),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "show", Cmd: "plates restaurants show <id>", Description: "Show a restaurant"},
					output.Breadcrumb{Action: "favourite", Cmd: "plates favourites add restaurant <id>", Description: "Save a restaurant"},
				),
			)
			return app.OK(restaurants, opts...)
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

func newRestaurantsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one restaurant",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: completer.IDs(completion.KindRestaurants),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			r, err := app.API.Restaurant(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			summary := r.Name
			if r.City != "" {
				summary += ", " + r.City
			}
			if r.Rating > 0 {
				summary += fmt.Sprintf(" (%.1f★)", r.Rating)
			}
			return app.OK(r,
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "favourite", Cmd: "plates favourites add restaurant " + r.ID, Description: "Save this restaurant"},
				),
			)
		},
	}
}
