package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/ledger/jobs"
)

func init() {
	rootCmd.AddCommand(periodsCmd)
	periodsCmd.AddCommand(periodsGenerateCmd)

	periodsGenerateCmd.Flags().String("company", "", "Company id (default: every company)")
	periodsGenerateCmd.Flags().Int("start-year", 0, "First fiscal year to generate (default: current year)")
	periodsGenerateCmd.Flags().Int("end-year", 0, "Last fiscal year to generate (default: start year + 1)")
	periodsGenerateCmd.Flags().Bool("enqueue", false, "Enqueue the run on the worker instead of running inline")
}

var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "Manage fiscal calendars",
}

var periodsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate missing fiscal periods",
	Args:  cobra.NoArgs,
	RunE:  runPeriodsGenerate,
}

func runPeriodsGenerate(cmd *cobra.Command, args []string) error {
	company, _ := cmd.Flags().GetString("company")
	startYear, _ := cmd.Flags().GetInt("start-year")
	endYear, _ := cmd.Flags().GetInt("end-year")
	enqueue, _ := cmd.Flags().GetBool("enqueue")
	if startYear != 0 && endYear != 0 && endYear < startYear {
		return fmt.Errorf("end-year %d precedes start-year %d", endYear, startYear)
	}
	payload := jobs.PeriodsGeneratePayload{CompanyID: company, StartYear: startYear, EndYear: endYear}

	ctx := cmd.Context()
	c, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	if enqueue {
		client, err := jobs.NewClient(redisOpts(c.Config.RedisAddr))
		if err != nil {
			return err
		}
		defer client.Close()
		info, err := client.EnqueuePeriodsGenerate(ctx, payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.Type, info.ID)
		return nil
	}

	job := jobs.NewPeriodsGenerateJob(c.Ledger.Periods, c.Companies, c.Logger, c.Metrics.Jobs())
	total, err := job.Run(ctx, payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d periods cover the requested years\n", total)
	return nil
}
