package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mzansiplatess/plates-cli/internal/completion"
	"github.com/mzansiplatess/plates-cli/internal/dateparse"
	"github.com/mzansiplatess/plates-cli/internal/models"
	"github.com/mzansiplatess/plates-cli/internal/output"
)

// NewEventsCmd creates the events command group.
func NewEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "events",
		Aliases: []string{"event"},
		Short:   "Browse food events",
		Long:    "Find festivals, markets and masterclasses near you.",
	}
	list := newEventsListCmd()
	cmd.RunE = list.RunE
	cmd.Flags().AddFlagSet(list.Flags())
	cmd.AddCommand(list, newEventsShowCmd())
	return cmd
}

// eventRow flattens an event with its display fields.
type eventRow struct {
	models.Event
	When        string `json:"when"`
	Cost        string `json:"cost"`
	SpotsLeft   *int   `json:"spots_left,omitempty"`
	FullyBooked bool   `json:"fully_booked"`
}

func newEventRow(e models.Event) eventRow {
	row := eventRow{
		Event:       e,
		When:        e.FormattedDateTime(),
		Cost:        e.FormattedPrice(),
		FullyBooked: e.IsFullyBooked(),
	}
	if spots, ok := e.SpotsRemaining(); ok {
		row.SpotsLeft = &spots
	}
	return row
}

func newEventsListCmd() *cobra.Command {
	var f searchFlags
	var when string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List upcoming events",
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
			var window *dateparse.Window
			if when != "" {
				w, err := dateparse.Parse(when)
				if err != nil {
					return output.ErrUsageHint("Invalid --when: "+err.Error(),
						"Try: today, this weekend, next week, in 10 days or 2026-12-15..2026-12-20")
				}
				window = &w
			}

			events, opts, err := loadPool(cmd.Context(), app.Hub.Events(params))
			if err != nil {
				return err
			}
			rememberIDs(app, completion.KindEvents, events, func(e models.Event) completion.Entry {
				return completion.Entry{ID: e.ID, Name: e.Name}
			})

			rows := make([]eventRow, 0, len(events))
			for _, e := range events {
				if window != nil && !window.Contains(e.StartDate) {
					continue
				}
				rows = append(rows, newEventRow(e))
			}
			summary := plural(len(rows), "event", "events")
			if window != nil {
				summary += " (" + window.String() + ")"
			}
			opts = append(opts,
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "show", Cmd: "plates events show <id>", Description: "Show an event"},
				),
			)
			return app.OK(rows, opts...)
		},
	}
	f.register(cmd.Flags(), true)
	cmd.Flags().StringVarP(&when, "when", "w", "", "Only events starting in this window (today, this weekend, next week, in 10 days, YYYY-MM-DD..YYYY-MM-DD)")
	return cmd
}

func newEventsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),

		ValidArgsFunction: completer.IDs(completion.KindEvents),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}

			e, err := app.API.Event(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			summary := fmt.Sprintf("%s · %s · %s", e.Name, e.FormattedDateTime(), e.FormattedPrice())
			if e.IsFullyBooked() {
				summary += " · Fully booked"
			} else if spots, ok := e.SpotsRemaining(); ok {
				summary += fmt.Sprintf(" · %s left", plural(spots, "spot", "spots"))
			}
			return app.OK(newEventRow(*e),
				output.WithSummary(summary),
				output.WithBreadcrumbs(
					output.Breadcrumb{Action: "favourite", Cmd: "plates favourites add event " + e.ID, Description: "Save this event"},
				),
			)
		},
	}
}
