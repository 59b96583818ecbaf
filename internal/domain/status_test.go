package domain

import "testing"

func TestRankStatus_String(t *testing.T) {
	tests := []struct {
		status RankStatus
		want   string
	}{
		{StatusGraveyard, "graveyard"},
		{StatusWIP, "wip"},
		{StatusPending, "pending"},
		{StatusRanked, "ranked"},
		{StatusApproved, "approved"},
		{StatusQualified, "qualified"},
		{StatusLoved, "loved"},
		{RankStatus(42), "unknown(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("RankStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func TestRankStatus_Valid(t *testing.T) {
	for s := StatusGraveyard; s <= StatusLoved; s++ {
		if !s.Valid() {
			t.Errorf("RankStatus(%d) should be valid", s)
		}
	}
	if RankStatus(-3).Valid() {
		t.Error("RankStatus(-3) should be invalid")
	}
	if RankStatus(5).Valid() {
		t.Error("RankStatus(5) should be invalid")
	}
}
