package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"solar-checker/internal/geocode"
	"solar-checker/internal/models"
	"solar-checker/internal/tui"
)

func runCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive qualification wizard",
		Long: "Walks through postal code, monthly bill, credit range and roof size, " +
			"shows the qualification result and collects financing documents.\n" +
			"Pass --lat and --lon to offer location detection on the first step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadRuntime()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctrl, err := r.controller(ctx)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			opts := []tui.Option{tui.WithLogger(r.log)}
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				opts = append(opts, tui.WithLocator(geocode.StaticLocator{
					Query: models.GeoQuery{Latitude: lat, Longitude: lon},
				}))
			}

			out := cmd.OutOrStdout()
			snap, err := tui.NewWizard(ctrl, tui.NewSurveyDriver(out), opts...).Run(ctx)
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			r.log.Info("wizard finished", map[string]interface{}{
				"mode":          snap.Mode.String(),
				"applicationId": snap.ApplicationID,
				"handoff":       string(snap.Handoff.Status),
			})
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "device latitude used for location detection")
	cmd.Flags().Float64Var(&lon, "lon", 0, "device longitude used for location detection")
	return cmd
}
