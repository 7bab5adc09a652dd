package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTier     = errors.New("unknown tier")
	ErrUnknownDivision = errors.New("unknown division")
)

// Tier is a ranked skill band. The integer value is the band's position in the ladder.
type Tier int

const (
	TierUnranked Tier = iota
	TierIron
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
	TierEmerald
	TierDiamond
	TierMaster
	TierGrandmaster
	TierChallenger
)

var tierNames = [...]string{
	TierUnranked:    "UNRANKED",
	TierIron:        "IRON",
	TierBronze:      "BRONZE",
	TierSilver:      "SILVER",
	TierGold:        "GOLD",
	TierPlatinum:    "PLATINUM",
	TierEmerald:     "EMERALD",
	TierDiamond:     "DIAMOND",
	TierMaster:      "MASTER",
	TierGrandmaster: "GRANDMASTER",
	TierChallenger:  "CHALLENGER",
}

func (t Tier) String() string {
	if t < TierUnranked || t > TierChallenger {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// Apex reports whether the tier has no divisions (master and above).
func (t Tier) Apex() bool {
	return t >= TierMaster
}

// ParseTier is case-insensitive. Unknown names return ErrUnknownTier.
func ParseTier(s string) (Tier, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return TierUnranked, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Division is a sub-level inside a tier, IV (lowest) to I (highest).
// DivisionNone is used at apex tiers and when the value is missing.
type Division int

const (
	DivisionNone Division = iota
	DivisionIV
	DivisionIII
	DivisionII
	DivisionI
)

var divisionNames = [...]string{
	DivisionNone: "",
	DivisionIV:   "IV",
	DivisionIII:  "III",
	DivisionII:   "II",
	DivisionI:    "I",
}

func (d Division) String() string {
	if d < DivisionNone || d > DivisionI {
		return fmt.Sprintf("Division(%d)", int(d))
	}
	return divisionNames[d]
}

// ParseDivision accepts roman numerals IV..I. An empty string is DivisionNone without error.
func ParseDivision(s string) (Division, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return DivisionNone, nil
	}
	for i, n := range divisionNames {
		if i > 0 && n == name {
			return Division(i), nil
		}
	}
	return DivisionNone, fmt.Errorf("%w: %q", ErrUnknownDivision, s)
}
