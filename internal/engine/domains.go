package engine

import (
	"strings"
)

// datingEligible applies the hard dating filters: mutual gender/orientation
// compatibility, age ranges, dealbreakers, and body-type preferences.
func datingEligible(p, c *Persona) bool {
	dp := p.DomainProfiles.Dating
	dc := c.DomainProfiles.Dating
	if dp == nil || dc == nil {
		return false
	}

	// 1. Mutual gender preference
	if len(dp.PreferredGenders) > 0 && !containsFold(dp.PreferredGenders, c.General.GenderIdentity) {
		return false
	}
	if len(dc.PreferredGenders) > 0 && !containsFold(dc.PreferredGenders, p.General.GenderIdentity) {
		return false
	}

	// 2. Orientation must not contradict
	if !orientationCompatible(dp.Orientation, p.General.GenderIdentity, c.General.GenderIdentity) {
		return false
	}
	if !orientationCompatible(dc.Orientation, c.General.GenderIdentity, p.General.GenderIdentity) {
		return false
	}

	// 3. Age within each side's preferred range
	if dp.PreferredAgeRange != nil && !dp.PreferredAgeRange.Contains(c.General.Age) {
		return false
	}
	if dc.PreferredAgeRange != nil && !dc.PreferredAgeRange.Contains(p.General.Age) {
		return false
	}

	// 4. Dealbreaker keywords against the other side's bio and interests
	if hasDealbreakerHit(dp.Dealbreakers, c) || hasDealbreakerHit(dc.Dealbreakers, p) {
		return false
	}

	// 5. Body-type preferences, when specified
	if len(dp.BodyTypePreferences) > 0 && dc.Appearance.Build != "" &&
		!containsFold(dp.BodyTypePreferences, dc.Appearance.Build) {
		return false
	}
	if len(dc.BodyTypePreferences) > 0 && dp.Appearance.Build != "" &&
		!containsFold(dc.BodyTypePreferences, dp.Appearance.Build) {
		return false
	}

	return true
}

// orientationCompatible checks one side's orientation against the identity pair.
// Unknown orientations never reject.
func orientationCompatible(orientation, ownIdentity, otherIdentity string) bool {
	switch strings.ToLower(strings.TrimSpace(orientation)) {
	case "gay", "lesbian", "homosexual":
		return strings.EqualFold(ownIdentity, otherIdentity)
	case "straight", "heterosexual":
		return !strings.EqualFold(ownIdentity, otherIdentity)
	default:
		return true
	}
}

// hasDealbreakerHit reports a case-insensitive substring hit of any dealbreaker
// keyword in the target's bio or interests.
func hasDealbreakerHit(dealbreakers []string, target *Persona) bool {
	if len(dealbreakers) == 0 {
		return false
	}
	bio := strings.ToLower(target.General.Bio)
	interests := strings.ToLower(strings.Join(target.Profile.Interests, " "))
	for _, db := range dealbreakers {
		kw := strings.ToLower(strings.TrimSpace(db))
		if kw == "" {
			continue
		}
		if strings.Contains(bio, kw) || strings.Contains(interests, kw) {
			return true
		}
	}
	return false
}

// businessEligible requires a role/seeking intersection when either side
// declares what it is looking for.
func businessEligible(p, c *Persona) bool {
	bp := p.DomainProfiles.Business
	bc := c.DomainProfiles.Business
	if bp == nil || bc == nil {
		return false
	}
	if len(bp.SeekingRoles) == 0 && len(bc.SeekingRoles) == 0 {
		return true
	}
	if len(bp.SeekingRoles) > 0 && SharedCount(bp.SeekingRoles, bc.Roles) > 0 {
		return true
	}
	if len(bc.SeekingRoles) > 0 && SharedCount(bc.SeekingRoles, bp.Roles) > 0 {
		return true
	}
	return false
}

// friendshipMinJaccard is the interest-overlap floor for the friendship domain.
const friendshipMinJaccard = 0.05

// friendshipEligible requires minimal interest overlap unless the caller
// relaxed shared-interest filtering.
func friendshipEligible(p, c *Persona, requireSharedInterests bool) bool {
	if !requireSharedInterests {
		return true
	}
	return Jaccard(friendshipInterests(p), friendshipInterests(c)) >= friendshipMinJaccard
}

// friendshipInterests prefers the friendship sub-profile interests and falls
// back to the shared profile interests.
func friendshipInterests(p *Persona) []string {
	if fp := p.DomainProfiles.Friendship; fp != nil && len(fp.Interests) > 0 {
		return fp.Interests
	}
	return p.Profile.Interests
}
