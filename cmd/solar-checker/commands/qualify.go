package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"solar-checker/internal/common/validation"
	"solar-checker/internal/models"
)

func qualifyCmd() *cobra.Command {
	var (
		zip    string
		bill   float64
		credit string
		roof   string
	)

	cmd := &cobra.Command{
		Use:   "qualify",
		Short: "Send one qualification request without the wizard",
		Example: "  solar-checker qualify --zip 90210 --bill 180 --credit good --roof large\n" +
			"  solar-checker qualify --zip 560001 --bill 95 --credit fair --roof 1200",
		RunE: func(cmd *cobra.Command, args []string) error {
			zip = strings.TrimSpace(zip)
			if !validation.IsAcceptablePostalCode(zip) {
				return fmt.Errorf("--zip must be a 5-digit ZIP or 6-digit PIN code")
			}
			r, err := loadRuntime()
			if err != nil {
				return err
			}
			gateway, err := r.gateway()
			if err != nil {
				return err
			}

			band := models.ParseCreditBand(credit)
			size := models.ParseRoofSize(roof)
			result := gateway.Submit(cmd.Context(), models.WizardAnswers{
				PostalCode:        &zip,
				MonthlyBillAmount: &bill,
				CreditBand:        &band,
				RoofSize:          &size,
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&zip, "zip", "", "postal code")
	cmd.Flags().Float64Var(&bill, "bill", 0, "average monthly electric bill")
	cmd.Flags().StringVar(&credit, "credit", string(models.DefaultCreditBand), "credit range: excellent, good, fair, poor")
	cmd.Flags().StringVar(&roof, "roof", string(models.DefaultRoofCategory), "roof size category or square feet")
	_ = cmd.MarkFlagRequired("zip")
	_ = cmd.MarkFlagRequired("bill")
	return cmd
}
