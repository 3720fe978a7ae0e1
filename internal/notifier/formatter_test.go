package notifier

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"NinetyDays/internal/challenge"
	"NinetyDays/internal/model"
	"NinetyDays/internal/recorder"
)

func TestFormatEvent(t *testing.T) {
	cases := []struct {
		ev   model.Event
		want string
	}{
		{model.EntryRecorded{Participant: "alice", Net: model.MustParseUnits("0.99"), Days: 90},
			"<b>alice</b> entered for 90 days with 0.99"},
		{model.ExitRecorded{Participant: "bob", Payout: model.MustParseUnits("0.7029"), DaysLeft: 90},
			"<b>bob</b> left early with 90 days left, paid 0.7029"},
		{model.BonusDistributed{Participants: 4, Share: model.MustParseUnits("0.025")},
			"0.025 to each of 4 participants"},
		{model.ValueTransferred{Amount: big.NewInt(1), From: "ledger", To: "<admin>"},
			"0.000000000000000001 sent from ledger to &lt;admin&gt;"},
		{model.EntriesAccessChanged{Open: false}, "Entries are closed"},
		{model.ChallengeCompleted{Participant: "carol", CommittedDays: 10}, "completed a 10 day challenge"},
	}
	for _, c := range cases {
		if got := FormatEvent(c.ev); !strings.Contains(got, c.want) {
			t.Errorf("FormatEvent(%s) = %q, want it to contain %q", c.ev.Kind(), got, c.want)
		}
	}
}

func TestFormatSummaryAndAudit(t *testing.T) {
	s := model.Summary{
		Administrator:  "admin",
		EntriesOpen:    true,
		ActiveCount:    1200,
		Participants:   1500,
		TotalFunds:     model.MustParseUnits("12.5"),
		TotalBonus:     model.MustParseUnits("0.2"),
		FeesAccrued:    model.MustParseUnits("0.13"),
		CustodyBalance: model.MustParseUnits("12"),
	}
	out := FormatSummary(s)
	for _, want := range []string{"Active participants: 1,200 of 1,500", "Total funds: 12.5", "Fees accrued: 0.13"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	audit := FormatAudit(challenge.AuditReport{
		Summary:   s,
		Violation: errors.New("funds <> parts"),
		Shortfall: model.MustParseUnits("0.5"),
	})
	if !strings.Contains(audit, "funds &lt;&gt; parts") || !strings.Contains(audit, "Custody shortfall: 0.5") {
		t.Errorf("unexpected audit message:\n%s", audit)
	}
}

func TestFormatParticipant(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	out := FormatParticipant(challenge.ParticipantView{
		ID:            "alice",
		Active:        true,
		Balance:       model.MustParseUnits("0.99"),
		CommittedDays: 90,
		DaysLeft:      87,
		LastUpdate:    now.Add(-72 * time.Hour),
		PaidOut:       new(big.Int),
	}, now)
	for _, want := range []string{"<b>alice</b> (active)", "Days left: 87 of 90", "3 days ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("participant message missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Paid out") {
		t.Errorf("nothing was paid out:\n%s", out)
	}
}

func TestFormatRecentEvents(t *testing.T) {
	if got := FormatRecentEvents(nil); !strings.Contains(got, "No ledger events") {
		t.Errorf("unexpected empty listing %q", got)
	}
	got := FormatRecentEvents([]recorder.EventRecord{
		{Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC), Kind: model.KindExitRecorded, Participant: "bob"},
	})
	if !strings.Contains(got, "03-01 09:30 ExitRecorded bob") {
		t.Errorf("unexpected listing %q", got)
	}
}
