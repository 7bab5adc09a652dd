package domain

import "strings"

const (
	unrankedIcon = "https://placehold.co/64x64/374151/9CA3AF?text=N/A"
	tierIconBase = "https://raw.communitydragon.org/latest/plugins/rcp-fe-lol-shared-components/global/default/"
)

var tierColors = map[Tier]string{
	TierIron:        "text-gray-400",
	TierBronze:      "text-orange-400",
	TierSilver:      "text-gray-300",
	TierGold:        "text-yellow-400",
	TierPlatinum:    "text-teal-400",
	TierEmerald:     "text-green-400",
	TierDiamond:     "text-blue-400",
	TierMaster:      "text-purple-400",
	TierGrandmaster: "text-red-500",
	TierChallenger:  "text-amber-300",
	TierUnranked:    "text-gray-500",
}

func TierIconURL(tier string) string {
	t, err := ParseTier(tier)
	if err != nil || t == TierUnranked {
		return unrankedIcon
	}
	return tierIconBase + strings.ToLower(t.String()) + ".png"
}

func TierColorClass(tier string) string {
	t, err := ParseTier(tier)
	if err != nil {
		return tierColors[TierUnranked]
	}
	return tierColors[t]
}

// DisplayRank is the division to show next to the tier. Blank for unranked and apex tiers.
func DisplayRank(s *RankedStanding) string {
	if s == nil {
		return ""
	}
	t, err := ParseTier(s.Tier)
	if err != nil || t == TierUnranked || t.Apex() {
		return ""
	}
	return s.Division
}
