package engine

// clonePersona deep-copies a persona so tick-local mutation never leaks into
// the caller's state. Sub-profiles and slices are copied; unchanged personas
// keep their original identity.
func clonePersona(p *Persona) *Persona {
	cp := *p

	cp.Domains = append([]Domain(nil), p.Domains...)
	cp.General.Values = append([]string(nil), p.General.Values...)
	cp.Facts = append([]Fact(nil), p.Facts...)

	cp.Profile.Interests = append([]string(nil), p.Profile.Interests...)
	cp.Profile.ConnectionGoals = append([]string(nil), p.Profile.ConnectionGoals...)
	cp.Profile.FeedbackSummary.IssueTags = append([]string(nil), p.Profile.FeedbackSummary.IssueTags...)
	cp.Profile.FeedbackSummary.RedFlagTags = append([]string(nil), p.Profile.FeedbackSummary.RedFlagTags...)
	if p.Profile.Availability != nil {
		av := Availability{
			Windows:    append([]TimeWindow(nil), p.Profile.Availability.Windows...),
			Exceptions: append([]AvailabilityException(nil), p.Profile.Availability.Exceptions...),
		}
		cp.Profile.Availability = &av
	}

	if p.DomainProfiles.Dating != nil {
		d := *p.DomainProfiles.Dating
		d.PreferredGenders = append([]string(nil), d.PreferredGenders...)
		d.Dealbreakers = append([]string(nil), d.Dealbreakers...)
		d.BodyTypePreferences = append([]string(nil), d.BodyTypePreferences...)
		if d.PreferredAgeRange != nil {
			r := *d.PreferredAgeRange
			d.PreferredAgeRange = &r
		}
		cp.DomainProfiles.Dating = &d
	}
	if p.DomainProfiles.Business != nil {
		b := *p.DomainProfiles.Business
		b.Roles = append([]string(nil), b.Roles...)
		b.SeekingRoles = append([]string(nil), b.SeekingRoles...)
		b.Skills = append([]string(nil), b.Skills...)
		cp.DomainProfiles.Business = &b
	}
	if p.DomainProfiles.Friendship != nil {
		f := *p.DomainProfiles.Friendship
		f.Interests = append([]string(nil), f.Interests...)
		cp.DomainProfiles.Friendship = &f
	}

	cp.MatchPreferences.BlockedPersonaIDs = append([]int64(nil), p.MatchPreferences.BlockedPersonaIDs...)
	cp.MatchPreferences.ExcludedPersonaIDs = append([]int64(nil), p.MatchPreferences.ExcludedPersonaIDs...)
	cp.MatchPreferences.GenderPreferences = append([]string(nil), p.MatchPreferences.GenderPreferences...)
	cp.MatchPreferences.BodyTypePreferences = append([]string(nil), p.MatchPreferences.BodyTypePreferences...)
	if p.MatchPreferences.AgeRange != nil {
		r := *p.MatchPreferences.AgeRange
		cp.MatchPreferences.AgeRange = &r
	}
	if p.MatchPreferences.ReliabilityMinScore != nil {
		v := *p.MatchPreferences.ReliabilityMinScore
		cp.MatchPreferences.ReliabilityMinScore = &v
	}

	cp.Reliability.History = append([]ReliabilityEvent(nil), p.Reliability.History...)

	if p.PriorityBoost != nil {
		v := *p.PriorityBoost
		cp.PriorityBoost = &v
	}
	if p.CreditPaidAt != nil {
		v := *p.CreditPaidAt
		cp.CreditPaidAt = &v
	}

	return &cp
}
