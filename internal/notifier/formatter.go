package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"NinetyDays/internal/challenge"
	"NinetyDays/internal/model"
	"NinetyDays/internal/recorder"
)

// FormatEvent renders one ledger event as a Telegram message line.
func FormatEvent(ev model.Event) string {
	switch e := ev.(type) {
	case model.EntryRecorded:
		return fmt.Sprintf("🟢 <b>%s</b> entered for %d days with %s",
			esc(e.Participant), e.Days, model.FormatUnits(e.Net))
	case model.DaysAdvanced:
		return fmt.Sprintf("📆 <b>%s</b>: %d of %d days left", esc(e.Participant), e.DaysLeft, e.CommittedDays)
	case model.ChallengeCompleted:
		return fmt.Sprintf("🏁 <b>%s</b> completed a %d day challenge", esc(e.Participant), e.CommittedDays)
	case model.ExitRecorded:
		return fmt.Sprintf("🔴 <b>%s</b> left early with %d days left, paid %s",
			esc(e.Participant), e.DaysLeft, model.FormatUnits(e.Payout))
	case model.BonusDistributed:
		return fmt.Sprintf("🎁 Bonus shared: %s to each of %d participants",
			model.FormatUnits(e.Share), e.Participants)
	case model.ValueTransferred:
		return fmt.Sprintf("💸 %s sent from %s to %s", model.FormatUnits(e.Amount), esc(e.From), esc(e.To))
	case model.EntriesAccessChanged:
		if e.Open {
			return "🔓 Entries are open"
		}
		return "🔒 Entries are closed"
	case model.AdministrationTransferred:
		return fmt.Sprintf("👤 Administration moved from %s to %s", esc(e.Previous), esc(e.Next))
	}
	return fmt.Sprintf("%s %v", ev.Kind(), ev.Args())
}

// FormatEvents renders the events of one operation followed by the totals.
func FormatEvents(events []model.Event, summary model.Summary) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString(FormatEvent(ev))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nPool: %s | Bonus: %s | Active: %d",
		model.FormatUnits(summary.TotalFunds), model.FormatUnits(summary.TotalBonus), summary.ActiveCount))
	return b.String()
}

// FormatSummary formats the ledger totals for display.
func FormatSummary(s model.Summary) string {
	var b strings.Builder
	b.WriteString("📦 <b>Challenge ledger</b>\n\n")
	b.WriteString(fmt.Sprintf("Administrator: %s\n", esc(s.Administrator)))
	b.WriteString(fmt.Sprintf("Entries open: %v\n", s.EntriesOpen))
	b.WriteString(fmt.Sprintf("Active participants: %s of %s\n",
		humanize.Comma(int64(s.ActiveCount)), humanize.Comma(int64(s.Participants))))
	b.WriteString(fmt.Sprintf("Total funds: %s\n", model.FormatUnits(s.TotalFunds)))
	b.WriteString(fmt.Sprintf("Bonus pool: %s\n", model.FormatUnits(s.TotalBonus)))
	b.WriteString(fmt.Sprintf("Fees accrued: %s\n", model.FormatUnits(s.FeesAccrued)))
	b.WriteString(fmt.Sprintf("Custody balance: %s\n", model.FormatUnits(s.CustodyBalance)))
	if !s.TakenAt.IsZero() {
		b.WriteString(fmt.Sprintf("As of: %s\n", s.TakenAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatParticipant formats one participant record relative to now.
func FormatParticipant(p challenge.ParticipantView, now time.Time) string {
	var b strings.Builder
	status := "finished"
	if p.Active {
		status = "active"
	}
	b.WriteString(fmt.Sprintf("👤 <b>%s</b> (%s)\n\n", esc(p.ID), status))
	b.WriteString(fmt.Sprintf("Balance: %s\n", model.FormatUnits(p.Balance)))
	b.WriteString(fmt.Sprintf("Days left: %d of %d\n", p.DaysLeft, p.CommittedDays))
	b.WriteString(fmt.Sprintf("Last update: %s\n", humanize.RelTime(p.LastUpdate, now, "ago", "from now")))
	if p.PaidOut != nil && p.PaidOut.Sign() > 0 {
		b.WriteString(fmt.Sprintf("Paid out: %s\n", model.FormatUnits(p.PaidOut)))
	}
	return b.String()
}

// FormatAudit formats a failed audit.
func FormatAudit(r challenge.AuditReport) string {
	s, violation, shortfall := r.Summary, r.Violation, r.Shortfall
	var b strings.Builder
	b.WriteString("⚠️ <b>Ledger audit failed</b>\n\n")
	if violation != nil {
		b.WriteString(fmt.Sprintf("Bookkeeping: %s\n", esc(violation.Error())))
	}
	if shortfall != nil && shortfall.Sign() > 0 {
		b.WriteString(fmt.Sprintf("Custody shortfall: %s\n", model.FormatUnits(shortfall)))
	}
	if r.SaveError != nil {
		b.WriteString(fmt.Sprintf("State file behind memory: %s\n", esc(r.SaveError.Error())))
	}
	b.WriteString(fmt.Sprintf("Total funds: %s | Custody: %s\n",
		model.FormatUnits(s.TotalFunds), model.FormatUnits(s.CustodyBalance)))
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "🤖 <b>NinetyDays commands</b>\n\n" +
		"/status - ledger totals\n" +
		"/participant &lt;id&gt; - one participant\n" +
		"/events [n] - recent ledger events\n" +
		"/open, /close - toggle entries\n" +
		"/flush - share the bonus pool now\n" +
		"/fees - withdraw accrued fees\n" +
		"/help - this message"
}

func esc[T ~string](s T) string {
	return html.EscapeString(string(s))
}

// FormatRecentEvents lists journaled events, newest first.
func FormatRecentEvents(records []recorder.EventRecord) string {
	if len(records) == 0 {
		return "No ledger events recorded yet."
	}
	var b strings.Builder
	b.WriteString("🧾 <b>Recent events</b>\n\n")
	for _, r := range records {
		b.WriteString(fmt.Sprintf("%s %s", r.Timestamp.Format("01-02 15:04"), r.Kind))
		if r.Participant != "" {
			b.WriteString(fmt.Sprintf(" %s", esc(r.Participant)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
