package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dataviews/internal/app"
	"dataviews/internal/domain"
	"dataviews/internal/service"
	"dataviews/internal/view"
)

var (
	renderMonth string
	renderSort  string
	renderDesc  bool
)

var renderCmd = &cobra.Command{
	Use:       "render <grid|kanban|calendar|gallery|form|state>",
	Short:     "Fetch the records once and print a view as JSON",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"grid", "kanban", "calendar", "gallery", "form", "state"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.Backend.Latency = 0

		a, err := app.New(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := renderView(a.Service(), args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func renderView(svc *service.DataViewsService, name string) (any, error) {
	switch name {
	case string(domain.ViewGrid):
		g := svc.GridState()
		if renderSort != "" {
			g.Sort = view.Sort{FieldID: renderSort, Direction: view.SortAsc}
			if renderDesc {
				g.Sort.Direction = view.SortDesc
			}
		}
		return svc.Grid(g), nil
	case string(domain.ViewKanban):
		return svc.Kanban()
	case string(domain.ViewCalendar):
		if renderMonth == "" {
			return svc.Calendar()
		}
		t, err := time.Parse("2006-01", renderMonth)
		if err != nil {
			return nil, fmt.Errorf("invalid --month %q: want YYYY-MM", renderMonth)
		}
		return svc.CalendarAt(t.Year(), t.Month())
	case string(domain.ViewGallery):
		return svc.Gallery(), nil
	case string(domain.ViewForm):
		return svc.NewForm(nil).Controls(svc.Locale()), nil
	case "state":
		return struct {
			State service.ViewState `json:"state"`
			Views []domain.ViewKind `json:"views"`
		}{svc.State(), svc.AvailableViews()}, nil
	default:
		return nil, fmt.Errorf("unknown view %q", name)
	}
}

func init() {
	renderCmd.Flags().StringVar(&renderMonth, "month", "", "calendar month as YYYY-MM (default current month)")
	renderCmd.Flags().StringVar(&renderSort, "sort", "", "grid sort field id")
	renderCmd.Flags().BoolVar(&renderDesc, "desc", false, "sort the grid descending")

	RootCmd.AddCommand(renderCmd)
}
