package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/negneg-eq-submitter/internal/config"
	"github.com/negneg-eq-submitter/internal/domain"
	"github.com/negneg-eq-submitter/internal/ledger"
	"github.com/negneg-eq-submitter/internal/submission"
	"github.com/negneg-eq-submitter/internal/validation"
	"github.com/negneg-eq-submitter/pkg/cipapi"
)

type submitOptions struct {
	reporter               string
	userName               string
	date                   string
	interpretationRequests []string
}

func newSubmitCmd(configFile *string) *cobra.Command {
	opts := &submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Generate, validate and submit a NegNeg exit questionnaire",
		Long: `Builds the Exit Questionnaire and Summary of Findings for an
interpretation request, validates both and submits them via the CIP-API.

The run stops without submitting anything if the case already has a
clinical report. With --dry-run both records are built, validated and
printed, and nothing is submitted.

Several interpretation requests can be given by repeating -i. They are
submitted one after another; a failed case does not stop the others
unless the CIP-API stops answering and the circuit breaker opens.

Example:
  negneg-eq submit -r "Joe Bloggs" -u jbloggs -d 2024-03-01 -i 12345-1 -t
  negneg-eq submit -r "Joe Bloggs" -u jbloggs -d 2024-03-01 -i 12345-1 -i 23456-2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, *configFile, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.reporter, "reporter", "r", "", `Name of person who is generating the report, in the format "Firstname Surname" (required)`)
	flags.StringVarP(&opts.userName, "user_name", "u", "", `CIP-API user name which will be recorded in the report, normally in the format "jbloggs" (required)`)
	flags.StringVarP(&opts.date, "date", "d", "", "Date in YYYY-MM-DD format recorded in Exit Questionnaire as process date (required)")
	flags.StringSliceVarP(&opts.interpretationRequests, "interpretation_request", "i", nil, "Interpretation request ID including version number, in the format 11111-1; repeat for several (required)")
	flags.BoolP("testing", "t", false, "Use the CIP-API Beta data during testing")
	flags.Bool("dry-run", false, "Build and validate the records and print them without submitting")

	return cmd
}

func runSubmit(cmd *cobra.Command, configFile string, opts *submitOptions) error {
	if len(opts.interpretationRequests) == 0 {
		return domain.NewInputError("Interpretation request ID is required")
	}

	a, err := loadApp(configFile,
		config.FlagBinding{Key: "cipapi.testing", Flag: cmd.Flags().Lookup("testing")},
		config.FlagBinding{Key: "submission.dry_run", Flag: cmd.Flags().Lookup("dry-run")},
	)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	tokens, err := cipapi.NewTokenCache(a.cfg.Cache)
	if err != nil {
		return domain.NewConfigError("failed to set up token cache", err)
	}
	defer tokens.Close()

	client := cipapi.NewClient(a.cfg.CIPAPI, a.cfg.Auth, tokens, a.logger)
	if a.cfg.CIPAPI.Testing {
		fmt.Fprintf(errOut, "TESTING MODE active using the beta data at: %s\n", client.BaseURL())
	}

	store, err := ledger.NewStore(ctx, a.cfg.Ledger, a.logger)
	if err != nil {
		return domain.NewConfigError("failed to open submission ledger", err)
	}
	defer store.Close()

	service := submission.NewService(client, validation.NewSchemaValidator(), store, a.logger)

	total := len(opts.interpretationRequests)
	succeeded := 0
	var firstErr error
	for i, ir := range opts.interpretationRequests {
		result, err := service.Run(ctx, submission.Request{
			Reporter:              opts.reporter,
			User:                  opts.userName,
			Date:                  opts.date,
			InterpretationRequest: ir,
			DryRun:                a.cfg.Submission.DryRun,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if total > 1 {
				fmt.Fprintf(errOut, "%s: %v\n", ir, err)
			}
			// Remaining cases would only be refused without reaching the API
			if cipapi.IsUnavailable(err) || ctx.Err() != nil {
				if skipped := total - i - 1; skipped > 0 {
					fmt.Fprintf(errOut, "Stopping, %d interpretation requests not attempted\n", skipped)
				}
				break
			}
			continue
		}
		succeeded++

		if result.Outcome == ledger.OutcomeDryRun {
			if err := printRecords(cmd, result); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "Exit Questionnaire submitted for interpretation request %s (clinical report version %d)\n",
			result.Case, result.ClinicalReportVersion)
	}

	if firstErr == nil || total == 1 {
		return firstErr
	}
	return fmt.Errorf("%d of %d interpretation requests not submitted, first failure: %w", total-succeeded, total, firstErr)
}

func printRecords(cmd *cobra.Command, result *submission.Result) error {
	records := struct {
		ExitQuestionnaire *domain.ExitQuestionnaire `json:"exitQuestionnaire"`
		ClinicalReport    *domain.ClinicalReport    `json:"clinicalReport"`
	}{result.ExitQuestionnaire, result.ClinicalReport}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to print records: %w", err)
	}
	return nil
}
