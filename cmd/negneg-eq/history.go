package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/negneg-eq-submitter/internal/domain"
	"github.com/negneg-eq-submitter/internal/ledger"
)

func newHistoryCmd(configFile *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past submission runs from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return domain.NewInputError(fmt.Sprintf("--limit must be positive, got %d", limit))
			}

			a, err := loadApp(*configFile)
			if err != nil {
				return err
			}
			defer a.Close()

			store, err := ledger.NewStore(cmd.Context(), a.cfg.Ledger, a.logger)
			if err != nil {
				return domain.NewConfigError("failed to open submission ledger", err)
			}
			defer store.Close()

			subs, err := store.List(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(subs) == 0 {
				fmt.Fprintln(out, "No submissions recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(subs))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of most recent runs to show")
	return cmd
}

func renderHistory(subs []*ledger.Submission) string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		version := ""
		if s.ClinicalReportVersion > 0 {
			version = strconv.Itoa(s.ClinicalReportVersion)
		}
		request := s.RequestID
		if s.RequestVersion != "" {
			request += "-" + s.RequestVersion
		}
		rows = append(rows, []string{
			s.CreatedAt.Local().Format(time.DateTime),
			request,
			s.Reporter,
			s.ReportDate,
			string(s.Outcome),
			version,
			s.Message,
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "REQUEST", "REPORTER", "DATE", "OUTCOME", "CR", "MESSAGE").
		Rows(rows...).
		String()
}
