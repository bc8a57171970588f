package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/ledger/jobs"
)

func init() {
	rootCmd.AddCommand(integrityCmd)

	integrityCmd.Flags().String("company", "", "Company id (default: every company)")
	integrityCmd.Flags().Bool("enqueue", false, "Enqueue the check on the worker instead of running inline")
}

var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Verify that posted entries balance in every period",
	Args:  cobra.NoArgs,
	RunE:  runIntegrity,
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	company, _ := cmd.Flags().GetString("company")
	enqueue, _ := cmd.Flags().GetBool("enqueue")

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
		info, err := client.EnqueueIntegrity(ctx, company)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", info.Type, info.ID)
		return nil
	}

	job := jobs.NewIntegrityJob(c.Ledger.Periods, c.Ledger.Reports, c.Companies, c.Logger, c.Metrics.Jobs())
	found, err := job.Run(ctx, company)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "all periods balance")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMPANY\tPERIOD ID\tPERIOD\tTOTAL")
	for _, imb := range found {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", imb.CompanyID, imb.PeriodID, imb.Period, imb.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return fmt.Errorf("%d period(s) out of balance", len(found))
}

func redisOpts(addr string) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr}
}
