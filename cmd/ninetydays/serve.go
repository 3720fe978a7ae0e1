package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"NinetyDays/internal/challenge"
	"NinetyDays/internal/metrics"
	"NinetyDays/internal/model"
	"NinetyDays/internal/notifier"
	"NinetyDays/internal/scheduler"
)

var auditOnStart bool

func init() {
	serveCmd.Flags().BoolVar(&auditOnStart, "audit-on-start", os.Getenv("RUN_ON_START") == "true", "Run the ledger audit once at startup")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger service with scheduled audits, notifications and metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log.Println("[INFO] NinetyDays starting...")

		mc := metrics.NewCollector()
		sinks := []challenge.Sink{mc}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var (
			tn  *notifier.TelegramNotifier
			fwd *notifier.Forwarder
		)
		if cfg.TelegramEnabled() {
			tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			fwd = notifier.NewForwarder(tn, 256)
			sinks = append(sinks, fwd)
		} else {
			log.Println("[WARN] telegram not configured, notifications disabled")
		}

		sess, err := openSession(cfg, sinks...)
		if err != nil {
			return err
		}
		defer sess.Close()
		mc.Observe(sess.manager.Summary())

		// Context for graceful shutdown
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var msg scheduler.Messenger
		if fwd != nil {
			msg = fwd
		}
		sched := scheduler.NewScheduler(ctx, sess.manager, msg, sess.recorder, mc, model.Identity(cfg.Ledger.Administrator))
		if err := sched.RegisterAll(cfg.Schedule.AuditCron, cfg.Schedule.CheckpointCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		if fwd != nil {
			go fwd.Run(ctx)
			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Println("[INFO] Telegram polling started")
		}

		if cfg.Metrics.Listen != "" {
			go func() {
				if err := mc.Serve(ctx, cfg.Metrics.Listen); err != nil {
					log.Printf("[ERROR] metrics server: %v", err)
				}
			}()
		}

		if auditOnStart {
			log.Println("[INFO] audit-on-start enabled, auditing ledger now")
			go sched.RunAuditNow()
		}

		log.Println("[INFO] NinetyDays is running. Press Ctrl+C to stop.")

		// Wait for shutdown signal
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("[INFO] shutdown signal received, stopping...")
		cancel()
		if err := sess.manager.Checkpoint(); err != nil {
			log.Printf("[ERROR] final checkpoint: %v", err)
		}
		log.Println("[INFO] NinetyDays stopped")
		return nil
	},
}
