package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/risk-api/internal/model"
	"github.com/sells-group/risk-api/internal/risk"
)

var (
	assessAmount    float64
	assessPurpose   string
	assessRevenue   float64
	assessEmployees int
	assessYears     int
	assessDebtRatio float64
	assessCredit    int
	assessOutput    string
)

// assessCmd scores a hypothetical request offline, without touching the
// database. Useful for sanity-checking the factor tables.
var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Score a financing request from the command line",
	RunE: func(cmd *cobra.Command, args []string) error {
		if assessAmount <= 0 {
			return eris.New("amount must be positive")
		}
		if !model.ValidRequestPurpose(assessPurpose) {
			return eris.Errorf("unknown purpose %q", assessPurpose)
		}

		in := risk.Input{
			Amount:  assessAmount,
			Purpose: model.RequestPurpose(assessPurpose),
		}
		// Only flags the caller actually set become signals; an unset flag
		// stays nil so the factor is skipped, same as the API.
		flags := cmd.Flags()
		if flags.Changed("revenue") {
			in.AnnualRevenue = &assessRevenue
		}
		if flags.Changed("employees") {
			in.EmployeeCount = &assessEmployees
		}
		if flags.Changed("years") {
			in.YearsInBusiness = &assessYears
		}
		if flags.Changed("debt-ratio") {
			in.DebtToEquityRatio = &assessDebtRatio
		}
		if flags.Changed("credit-score") {
			in.CreditScore = &assessCredit
		}

		result := risk.Assess(in)

		switch assessOutput {
		case "json":
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return eris.Wrap(err, "marshal result")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		case "yaml":
			out, err := yaml.Marshal(result)
			if err != nil {
				return eris.Wrap(err, "marshal result")
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
		default:
			return eris.Errorf("unsupported output format: %s", assessOutput)
		}
		return nil
	},
}

func init() {
	assessCmd.Flags().Float64Var(&assessAmount, "amount", 0, "requested amount (required)")
	assessCmd.Flags().StringVar(&assessPurpose, "purpose", "loan", "request purpose")
	assessCmd.Flags().Float64Var(&assessRevenue, "revenue", 0, "annual revenue")
	assessCmd.Flags().IntVar(&assessEmployees, "employees", 0, "employee count")
	assessCmd.Flags().IntVar(&assessYears, "years", 0, "years in business")
	assessCmd.Flags().Float64Var(&assessDebtRatio, "debt-ratio", 0, "debt to equity ratio")
	assessCmd.Flags().IntVar(&assessCredit, "credit-score", 0, "credit score")
	assessCmd.Flags().StringVarP(&assessOutput, "output", "o", "json", "output format (json|yaml)")
	_ = assessCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(assessCmd)
}
