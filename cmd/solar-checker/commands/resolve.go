package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"solar-checker/internal/models"
)

func resolveCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Reverse geocode coordinates to a postal code",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := loadRuntime()
			if err != nil {
				return err
			}
			resolver, err := r.resolver()
			if err != nil {
				return err
			}
			record, err := resolver.Resolve(cmd.Context(), models.GeoQuery{Latitude: lat, Longitude: lon})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", record.Code, record.Format)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
