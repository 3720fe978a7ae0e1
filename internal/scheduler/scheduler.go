package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"NinetyDays/internal/challenge"
	"NinetyDays/internal/metrics"
	"NinetyDays/internal/model"
	"NinetyDays/internal/notifier"
	"NinetyDays/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Messenger queues a chat message. A nil Messenger disables chat output.
type Messenger interface {
	Notify(text string) error
}

// Scheduler manages all cron tasks and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Challenge *challenge.Manager
	Messenger Messenger
	Recorder  recorder.Recorder
	Metrics   *metrics.Collector
	// Operator is the identity chat commands act as.
	Operator model.Identity
	Now      func() time.Time
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, cm *challenge.Manager, msg Messenger, rec recorder.Recorder, mc *metrics.Collector, operator model.Identity) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Challenge: cm,
		Messenger: msg,
		Recorder:  rec,
		Metrics:   mc,
		Operator:  operator,
		Now:       time.Now,
		Ctx:       ctx,
	}
}

// RegisterAll registers the audit and checkpoint tasks.
func (s *Scheduler) RegisterAll(auditCron, checkpointCron string) error {
	if _, err := s.Cron.AddFunc(auditCron, func() { s.auditTask() }); err != nil {
		return fmt.Errorf("register audit task: %w", err)
	}
	if _, err := s.Cron.AddFunc(checkpointCron, s.checkpointTask); err != nil {
		return fmt.Errorf("register checkpoint task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunAuditNow executes the audit immediately.
func (s *Scheduler) RunAuditNow() challenge.AuditReport {
	return s.auditTask()
}

func (s *Scheduler) auditTask() challenge.AuditReport {
	report := s.Challenge.Audit()

	rec := &recorder.AuditRecord{Summary: report.Summary, Shortfall: report.Shortfall.String()}
	if report.Violation != nil {
		rec.Violation = report.Violation.Error()
	}
	if report.SaveError != nil {
		rec.SaveError = report.SaveError.Error()
	}
	if err := s.Recorder.RecordAudit(rec); err != nil {
		log.Printf("[ERROR] record audit: %v", err)
	}
	if s.Metrics != nil {
		s.Metrics.Observe(report.Summary)
		s.Metrics.ObserveAudit(report.OK())
	}

	if report.OK() {
		log.Printf("[INFO] audit ok: funds=%s active=%d", model.FormatUnits(report.Summary.TotalFunds), report.Summary.ActiveCount)
		return report
	}
	log.Printf("[ERROR] audit failed: violation=%v shortfall=%s save=%v", report.Violation, report.Shortfall, report.SaveError)
	s.trySend(notifier.FormatAudit(report))
	return report
}

func (s *Scheduler) checkpointTask() {
	if err := s.Challenge.Checkpoint(); err != nil {
		log.Printf("[ERROR] checkpoint: %v", err)
		s.trySend(fmt.Sprintf("❌ State checkpoint failed: %v", err))
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// Group chats address commands as /status@botname.
	name, _, _ := strings.Cut(fields[0], "@")

	switch name {
	case "/status":
		return notifier.FormatSummary(s.Challenge.Summary())
	case "/participant":
		if len(fields) < 2 {
			return "Usage: /participant &lt;id&gt;"
		}
		view, ok := s.Challenge.Participant(model.Identity(fields[1]))
		if !ok {
			return fmt.Sprintf("%s never entered the challenge.", fields[1])
		}
		return notifier.FormatParticipant(view, s.Now())
	case "/events":
		limit := 10
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}
		records, err := s.Recorder.RecentEvents(limit)
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatRecentEvents(records)
	case "/open":
		return s.operatorReply(s.Challenge.SetEntriesOpen(s.Operator, true))
	case "/close":
		return s.operatorReply(s.Challenge.SetEntriesOpen(s.Operator, false))
	case "/flush":
		return s.operatorReply(s.Challenge.ForceBonusDistribution(s.Operator))
	case "/fees":
		return s.operatorReply(s.Challenge.TakeFees(s.Operator))
	case "/audit":
		if report := s.auditTask(); report.OK() {
			return "✅ Audit passed\n\n" + notifier.FormatSummary(report.Summary)
		}
		// The failure was already sent by auditTask.
		return ""
	default:
		return notifier.FormatHelp()
	}
}

// operatorReply renders the outcome of an operator command. Successful
// operations are announced by the event forwarder, so only failures reply.
func (s *Scheduler) operatorReply(_ []model.Event, err error) string {
	if err != nil {
		return fmt.Sprintf("❌ %s", err)
	}
	if s.Messenger == nil {
		return "✅ Done"
	}
	return ""
}

func (s *Scheduler) trySend(text string) {
	if s.Messenger == nil {
		return
	}
	if err := s.Messenger.Notify(text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
