package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"NinetyDays/internal/challenge"
	"NinetyDays/internal/model"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(auditCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status [participant]",
	Short: "Print the ledger totals, or one participant's record",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sess, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		if len(args) == 0 {
			printSummary(os.Stdout, sess.manager.Summary())
			return nil
		}
		view, ok := sess.manager.Participant(model.Identity(args[0]))
		if !ok {
			return fmt.Errorf("%s never entered the challenge", args[0])
		}
		printParticipant(os.Stdout, view)
		return nil
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check the bookkeeping of the state file against custody",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		sess, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		report := sess.manager.Audit()
		printSummary(os.Stdout, report.Summary)
		if report.OK() {
			fmt.Println("audit: ok")
			return nil
		}
		if report.Violation != nil {
			fmt.Printf("audit: bookkeeping violation: %v\n", report.Violation)
		}
		if report.Shortfall.Sign() > 0 {
			fmt.Printf("audit: custody shortfall of %s\n", model.FormatUnits(report.Shortfall))
		}
		if report.SaveError != nil {
			fmt.Printf("audit: state file behind memory: %v\n", report.SaveError)
		}
		return fmt.Errorf("audit failed")
	},
}

func printSummary(w io.Writer, s model.Summary) {
	fmt.Fprintf(w, "administrator:    %s\n", s.Administrator)
	fmt.Fprintf(w, "entries open:     %v\n", s.EntriesOpen)
	fmt.Fprintf(w, "active:           %s of %s\n", humanize.Comma(int64(s.ActiveCount)), humanize.Comma(int64(s.Participants)))
	fmt.Fprintf(w, "total funds:      %s\n", model.FormatUnits(s.TotalFunds))
	fmt.Fprintf(w, "bonus pool:       %s\n", model.FormatUnits(s.TotalBonus))
	fmt.Fprintf(w, "fees accrued:     %s\n", model.FormatUnits(s.FeesAccrued))
	fmt.Fprintf(w, "custody balance:  %s\n", model.FormatUnits(s.CustodyBalance))
}

func printParticipant(w io.Writer, p challenge.ParticipantView) {
	fmt.Fprintf(w, "participant:  %s\n", p.ID)
	fmt.Fprintf(w, "active:       %v\n", p.Active)
	fmt.Fprintf(w, "balance:      %s\n", model.FormatUnits(p.Balance))
	fmt.Fprintf(w, "days left:    %d of %d\n", p.DaysLeft, p.CommittedDays)
	fmt.Fprintf(w, "last update:  %s (%s)\n", p.LastUpdate.Format("2006-01-02 15:04"), humanize.Time(p.LastUpdate))
	fmt.Fprintf(w, "paid out:     %s\n", model.FormatUnits(p.PaidOut))
}
