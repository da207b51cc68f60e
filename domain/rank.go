package domain

// Rank symbols as they appear in front of usernames on the wire, weakest
// first. Unknown symbols rank below voice. Bot rank sits above voice but
// below driver: a bot cannot act as a moderator.
const (
	RankRegular   = " "
	RankVoice     = "+"
	RankBot       = "*"
	RankDriver    = "%"
	RankModerator = "@"
	RankOwner     = "#"
	RankAdmin     = "&"
)

var rankOrder = map[string]int{
	RankRegular:   0,
	RankVoice:     1,
	RankBot:       2,
	RankDriver:    3,
	RankModerator: 4,
	RankOwner:     5,
	RankAdmin:     6,
}

// RankAtLeast reports whether rank grants at least the capabilities of min.
func RankAtLeast(rank, min string) bool {
	return rankOrder[rank] >= rankOrder[min]
}
