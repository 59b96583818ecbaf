package domain

import "strconv"

// RankStatus is the moderation status ChartHub assigns to charts and sets.
// The numeric values match the ChartHub wire format.
type RankStatus int

const (
	StatusGraveyard RankStatus = -2
	StatusWIP       RankStatus = -1
	StatusPending   RankStatus = 0
	StatusRanked    RankStatus = 1
	StatusApproved  RankStatus = 2
	StatusQualified RankStatus = 3
	StatusLoved     RankStatus = 4
)

// String returns the lowercase display name for the status.
func (s RankStatus) String() string {
	switch s {
	case StatusGraveyard:
		return "graveyard"
	case StatusWIP:
		return "wip"
	case StatusPending:
		return "pending"
	case StatusRanked:
		return "ranked"
	case StatusApproved:
		return "approved"
	case StatusQualified:
		return "qualified"
	case StatusLoved:
		return "loved"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Valid reports whether the status is one ChartHub can return.
func (s RankStatus) Valid() bool {
	return s >= StatusGraveyard && s <= StatusLoved
}
