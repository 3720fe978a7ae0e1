package main

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"NinetyDays/internal/challenge"
	"NinetyDays/internal/model"
)

var (
	callerArg string
	daysArg   int
)

func init() {
	enterCmd.Flags().IntVarP(&daysArg, "days", "d", 0, "Days to commit to (0 for the default of 90)")

	for _, cmd := range []*cobra.Command{
		enterCmd, exitCmd, advanceCmd, depositCmd, openCmd, closeCmd,
		flushBonusCmd, takeFeesCmd, withdrawStrayCmd, transferAdminCmd,
	} {
		cmd.Flags().StringVar(&callerArg, "as", "", "Identity performing the operation")
		cmd.MarkFlagRequired("as")
		rootCmd.AddCommand(cmd)
	}
}

// ledgerOp builds a one-shot command that runs op against the locked ledger
// and prints the emitted events.
func ledgerOp(use, short string, args cobra.PositionalArgs, op func(cm *challenge.Manager, caller model.Identity, args []string) ([]model.Event, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
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

			events, err := op(sess.manager, model.Identity(callerArg), args)
			if err != nil {
				return err
			}
			printEvents(os.Stdout, events)
			return nil
		},
	}
}

var enterCmd = ledgerOp("enter <amount>", "Stake an amount and enter the challenge", cobra.ExactArgs(1),
	func(cm *challenge.Manager, caller model.Identity, args []string) ([]model.Event, error) {
		amount, err := model.ParseUnits(args[0])
		if err != nil {
			return nil, err
		}
		return cm.Enter(caller, daysArg, amount)
	})

var exitCmd = ledgerOp("exit", "Leave the challenge early, paying the penalty", cobra.NoArgs,
	func(cm *challenge.Manager, caller model.Identity, _ []string) ([]model.Event, error) {
		return cm.Exit(caller)
	})

var advanceCmd = ledgerOp("advance", "Apply the days completed since the last update", cobra.NoArgs,
	func(cm *challenge.Manager, caller model.Identity, _ []string) ([]model.Event, error) {
		return cm.AdvanceDays(caller)
	})

var depositCmd = ledgerOp("deposit <amount>", "Send value to the ledger without entering", cobra.ExactArgs(1),
	func(cm *challenge.Manager, caller model.Identity, args []string) ([]model.Event, error) {
		amount, err := model.ParseUnits(args[0])
		if err != nil {
			return nil, err
		}
		return nil, cm.Deposit(caller, amount)
	})

var openCmd = ledgerOp("open", "Accept new entries", cobra.NoArgs,
	func(cm *challenge.Manager, caller model.Identity, _ []string) ([]model.Event, error) {
		return cm.SetEntriesOpen(caller, true)
	})

var closeCmd = ledgerOp("close", "Stop accepting new entries", cobra.NoArgs,
	func(cm *challenge.Manager, caller model.Identity, _ []string) ([]model.Event, error) {
		return cm.SetEntriesOpen(caller, false)
	})

var flushBonusCmd = ledgerOp("flush-bonus", "Share the whole bonus pool among active participants", cobra.NoArgs,
	func(cm *challenge.Manager, caller model.Identity, _ []string) ([]model.Event, error) {
		return cm.ForceBonusDistribution(caller)
	})

var takeFeesCmd = ledgerOp("take-fees", "Withdraw the accrued service fees", cobra.NoArgs,
	func(cm *challenge.Manager, caller model.Identity, _ []string) ([]model.Event, error) {
		return cm.TakeFees(caller)
	})

var withdrawStrayCmd = ledgerOp("withdraw-stray", "Withdraw the entire custody balance", cobra.NoArgs,
	func(cm *challenge.Manager, caller model.Identity, _ []string) ([]model.Event, error) {
		return cm.WithdrawStray(caller)
	})

var transferAdminCmd = ledgerOp("transfer-admin <identity>", "Hand administration to another identity", cobra.ExactArgs(1),
	func(cm *challenge.Manager, caller model.Identity, args []string) ([]model.Event, error) {
		return cm.TransferAdministration(caller, model.Identity(args[0]))
	})

func printEvents(w io.Writer, events []model.Event) {
	for _, ev := range events {
		fmt.Fprint(w, ev.Kind())
		for _, arg := range ev.Args() {
			fmt.Fprintf(w, " %s", formatArg(arg))
		}
		fmt.Fprintln(w)
	}
}

func formatArg(arg any) string {
	switch v := arg.(type) {
	case *big.Int:
		return model.FormatUnits(v)
	case model.Identity:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprint(arg)
}
