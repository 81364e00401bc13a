package commands

import (
	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
	"github.com/mzansiplatess/plates-cli/internal/tui/empty"
)

// NewFavouritesCmd creates the favourites command group.
func NewFavouritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favourites",
		Aliases: []string{"favourite", "favorites", "fav"},
		Short:   "Manage saved restaurants, recipes and events",
		Long:    "List, add and remove favourites. Requires signing in with: plates auth login",
	}
	list := newFavouritesListCmd()
	cmd.RunE = list.RunE
	cmd.Flags().AddFlagSet(list.Flags())
	cmd.AddCommand(list, newFavouritesAddCmd(), newFavouritesRemoveCmd())
	return cmd
}

func parseFavouriteType(s string) (models.FavouriteType, error) {
	t, err := models.ParseFavouriteType(s)
	if err != nil {
		return "", output.ErrUsageHint(err.Error(), "Use restaurant, recipe or event")
	}
	return t, nil
}

func newFavouritesListCmd() *cobra.Command {
	var typeFlag string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your favourites",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if _, err := app.Auth.RequireToken(cmd.Context()); err != nil {
				return err
			}

			var itemType models.FavouriteType
			if typeFlag != "" {
				if itemType, err = parseFavouriteType(typeFlag); err != nil {
					return err
				}
			}

			favourites, opts, err := loadPool(cmd.Context(), app.Hub.Favourites(itemType))
			if err != nil {
				return err
			}

			summary := plural(len(favourites), "favourite", "favourites")
			if len(favourites) == 0 && itemType == "" {
				summary = empty.NoFavourites().Title
			}
			opts = append(opts,
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "remove", Cmd: "plates favourites remove <id>", Description: "Remove a favourite"},
				),
			)
			return app.OK(favourites, opts...)
		},
	}
	cmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Only restaurant, recipe or event favourites")
	return cmd
}

func newFavouritesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <restaurant|recipe|event> <id>",
		Short: "Save a restaurant, recipe or event",
		Args:  cobra.ExactArgs(2),

		ValidArgsFunction: completer.Favourite(),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			itemType, err := parseFavouriteType(args[0])
			if err != nil {
				return err
			}
			if _, err := app.Auth.RequireToken(cmd.Context()); err != nil {
				return err
			}

			fav, err := app.API.AddFavourite(cmd.Context(), itemType, args[1])
			if err != nil {
				return err
			}
			app.Hub.InvalidateFavourites()

			return app.OK(fav,
				output.WithSummary("Saved "+args[1]),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "list", Cmd: "plates favourites list", Description: "List your favourites"},
				),
			)
		},
	}
}

func newFavouritesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <favourite-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a favourite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			if _, err := app.Auth.RequireToken(cmd.Context()); err != nil {
				return err
			}

			if err := app.API.RemoveFavourite(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.Hub.InvalidateFavourites()

			return app.OK(map[string]any{"_id": args[0], "removed": true},
				output.WithSummary("Removed favourite "+args[0]),
			)
		},
	}
}
