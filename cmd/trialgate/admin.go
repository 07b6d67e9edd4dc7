package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/trialgate/modules/access"
	"github.com/dmitrymomot/trialgate/pkg/subscription"
	"github.com/dmitrymomot/trialgate/pkg/trialcode"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, log, err := setup()
			if err != nil {
				return err
			}
			pool, pgCfg, err := openPostgres(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer pool.Close()
			return migrate(cmd.Context(), pool, pgCfg, log)
		},
	}
}

func newCodesCmd() *cobra.Command {
	codes := &cobra.Command{
		Use:   "codes",
		Short: "Manage trial codes",
	}

	var (
		count     int
		days      int
		expiresIn time.Duration
	)
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Mint single-use trial codes and print them, one per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if days == 0 {
				days = cfg.TrialDefaultDays
			}
			params := trialcode.GenerateParams{Count: count, Days: days}
			if expiresIn > 0 {
				at := time.Now().Add(expiresIn).UTC()
				params.ExpiresAt = &at
			}

			st, err := openStores(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			issued, err := trialcode.NewService(st.codes).Generate(cmd.Context(), params)
			for _, c := range issued {
				fmt.Fprintln(cmd.OutOrStdout(), c.Code)
			}
			return err
		},
	}
	generate.Flags().IntVarP(&count, "count", "n", 1, "number of codes to mint")
	generate.Flags().IntVarP(&days, "days", "d", 0, "trial days granted on redemption (TRIAL_DEFAULT_DAYS when zero)")
	generate.Flags().DurationVar(&expiresIn, "expires-in", 0, "redemption deadline relative to now, e.g. 720h")

	codes.AddCommand(generate)
	return codes
}

func newGrantCmd() *cobra.Command {
	var (
		userID string
		days   int
	)
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Put a user on the paid plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer st.Close()

			sub, err := subscription.NewService(st.subs).UpsertPaid(cmd.Context(), userID, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s plan until %s\n",
				sub.SubjectID, sub.Plan, sub.EndAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "subject id to upgrade")
	cmd.Flags().IntVarP(&days, "days", "d", access.DefaultPaidDays, "length of the paid period in days")
	return cmd
}
