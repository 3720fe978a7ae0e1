package scheduler

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"NinetyDays/internal/challenge"
	"NinetyDays/internal/metrics"
	"NinetyDays/internal/model"
	"NinetyDays/internal/recorder"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type chatLog struct{ msgs []string }

func (c *chatLog) Notify(text string) error {
	c.msgs = append(c.msgs, text)
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *chatLog) {
	t.Helper()
	dir := t.TempDir()
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "events.db"))
	if err != nil {
		t.Fatalf("open recorder: %v", err)
	}
	t.Cleanup(func() { rec.Close() })

	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	cm, err := challenge.NewManager(filepath.Join(dir, "state.json"), "ledger", "admin", fixedClock{now}, rec)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	chat := &chatLog{}
	s := NewScheduler(context.Background(), cm, chat, rec, metrics.NewCollector(), "admin")
	s.Now = func() time.Time { return now }
	return s, chat
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t)
	if err := s.RegisterAll("0 0 * * * *", "0 */5 * * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Errorf("expected 2 cron entries, got %d", n)
	}
	if err := s.RegisterAll("not a schedule", "0 */5 * * * *"); err == nil {
		t.Error("expected error for a bad audit schedule")
	}
}

func TestHandleCommand_Queries(t *testing.T) {
	s, _ := newTestScheduler(t)
	if _, err := s.Challenge.Enter("alice", 30, model.MustParseUnits("1")); err != nil {
		t.Fatalf("enter: %v", err)
	}

	if got := s.HandleCommand("/status"); !strings.Contains(got, "Total funds: 1") {
		t.Errorf("unexpected /status reply:\n%s", got)
	}
	if got := s.HandleCommand("/participant alice"); !strings.Contains(got, "Days left: 30 of 30") {
		t.Errorf("unexpected /participant reply:\n%s", got)
	}
	if got := s.HandleCommand("/participant bob"); !strings.Contains(got, "never entered") {
		t.Errorf("unexpected reply for unknown participant: %s", got)
	}
	if got := s.HandleCommand("/events@NinetyDaysBot 5"); !strings.Contains(got, "EntryRecorded alice") {
		t.Errorf("unexpected /events reply:\n%s", got)
	}
	if got := s.HandleCommand("hello"); !strings.Contains(got, "/participant") {
		t.Errorf("expected help, got %s", got)
	}
}

func TestHandleCommand_OperatorActions(t *testing.T) {
	s, _ := newTestScheduler(t)

	if got := s.HandleCommand("/close"); got != "" {
		t.Errorf("expected silent success, got %q", got)
	}
	if s.Challenge.Summary().EntriesOpen {
		t.Fatal("entries should be closed")
	}
	if got := s.HandleCommand("/fees"); got != "❌ Insufficient fees balance." {
		t.Errorf("unexpected /fees reply %q", got)
	}

	if _, err := s.Challenge.TransferAdministration("admin", "carol"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := s.HandleCommand("/open"); got != "❌ You are not allowed to perform this action." {
		t.Errorf("unexpected /open reply %q", got)
	}
}

func TestAuditTask(t *testing.T) {
	s, chat := newTestScheduler(t)
	if _, err := s.Challenge.Enter("alice", 0, model.MustParseUnits("1")); err != nil {
		t.Fatalf("enter: %v", err)
	}

	if report := s.RunAuditNow(); !report.OK() {
		t.Fatalf("expected clean audit: %+v", report)
	}
	if len(chat.msgs) != 0 {
		t.Errorf("clean audit should not notify, got %v", chat.msgs)
	}

	if err := s.Challenge.Deposit("bob", model.MustParseUnits("0.5")); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if _, err := s.Challenge.WithdrawStray("admin"); err != nil {
		t.Fatalf("withdraw stray: %v", err)
	}
	if got := s.HandleCommand("/audit"); got != "" {
		t.Errorf("failed audit replies through the messenger, got %q", got)
	}
	if len(chat.msgs) != 1 || !strings.Contains(chat.msgs[0], "Custody shortfall: 1") {
		t.Errorf("expected one shortfall alert, got %v", chat.msgs)
	}
}

type auditLog struct {
	recorder.Recorder
	audits []*recorder.AuditRecord
}

func (a *auditLog) RecordAudit(rec *recorder.AuditRecord) error {
	a.audits = append(a.audits, rec)
	return a.Recorder.RecordAudit(rec)
}

func TestRegisterAll_JobsRun(t *testing.T) {
	s, chat := newTestScheduler(t)
	journal := &auditLog{Recorder: s.Recorder}
	s.Recorder = journal
	if _, err := s.Challenge.Enter("alice", 0, model.MustParseUnits("1")); err != nil {
		t.Fatalf("enter: %v", err)
	}
	if err := s.RegisterAll("0 0 * * * *", "0 */5 * * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, entry := range s.Cron.Entries() {
		entry.Job.Run()
	}
	if len(journal.audits) != 1 {
		t.Fatalf("expected one audit recorded, got %d", len(journal.audits))
	}
	got := journal.audits[0]
	if got.Violation != "" || got.Shortfall != "0" || got.SaveError != "" {
		t.Errorf("unexpected audit record %+v", got)
	}
	if got.Summary.TotalFunds.Cmp(model.MustParseUnits("1")) != 0 {
		t.Errorf("expected audited funds of 1, got %s", got.Summary.TotalFunds)
	}
	if len(chat.msgs) != 0 {
		t.Errorf("clean jobs should not notify, got %v", chat.msgs)
	}
}
