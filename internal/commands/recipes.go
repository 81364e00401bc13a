package commands

import (
	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/completion"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// NewRecipesCmd creates the recipes command group.
func NewRecipesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipes",
		Aliases: []string{"recipe", "cook"},
		Short:   "Browse recipes",
		Long:    "Find recipes and read them step by step.",
	}
	list := newRecipesListCmd()
	cmd.RunE = list.RunE
	cmd.Flags().AddFlagSet(list.Flags())
	cmd.AddCommand(list, newRecipesShowCmd())
	return cmd
}

func newRecipesListCmd() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recipes",
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

			recipes, opts, err := loadPool(cmd.Context(), app.Hub.Recipes(params))
			if err != nil {
				return err
			}
			rememberIDs(app, completion.KindRecipes, recipes, func(r models.Recipe) completion.Entry {
				return completion.Entry{ID: r.ID, Name: r.Name}
			})

			rows := make([]recipeRow, len(recipes))
			for i, r := range recipes {
				rows[i] = recipeRow{ID: r.ID, Name: r.Name, Category: r.Category, Time: r.FormattedTime(), Difficulty: r.DifficultyLabel(), Rating: r.Rating}
			}
			opts = append(opts,
				output.WithSummary(plural(len(recipes), "recipe", "recipes")),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "show", Cmd: "plates recipes show <id>", Description: "Read a recipe"},
					output.Breadcrumb{Action: "shop", Cmd: "plates shopping add --recipe <id>", Description: "Add its ingredients to your list"},
				),
			)
			return app.OK(rows, opts...)
		},
	}
	f.register(cmd.Flags(), false)
	return cmd
}

// recipeRow is the list view of a recipe.
type recipeRow struct {
	ID         string  `json:"_id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Time       string  `json:"time"`
	Difficulty string  `json:"difficulty"`
	Rating     float64 `json:"rating"`
}

func newRecipesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a recipe with ingredients and method",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: completer.IDs(completion.KindRecipes),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			r, err := app.API.Recipe(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return app.OK(r,
				output.WithSummary(r.Name+" · "+r.FormattedTime()),
				output.WithDocument(r.Markdown()),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "shop", Cmd: "plates shopping add --recipe " + r.ID, Description: "Add the ingredients to your list"},
					output.Breadcrumb{Action: "favourite", Cmd: "plates favourites add recipe " + r.ID, Description: "Save this recipe"},
				),
			)
		},
	}
}
