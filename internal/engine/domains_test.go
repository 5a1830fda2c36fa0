package engine

import (
	"testing"
)

func datingPersona(id int64, gender string, age int, dp *DatingProfile) *Persona {
	return &Persona{
		ID:     id,
		Status: StatusActive,
		General: GeneralInfo{
			Age:            age,
			GenderIdentity: gender,
			Location:       Location{City: "Berlin"},
		},
		DomainProfiles: DomainProfiles{Dating: dp},
	}
}

func TestDatingEligible_MutualGenderPreference(t *testing.T) {
	a := datingPersona(1, "woman", 30, &DatingProfile{PreferredGenders: []string{"man"}})
	b := datingPersona(2, "man", 31, &DatingProfile{PreferredGenders: []string{"woman"}})
	if !datingEligible(a, b) {
		t.Error("Mutually preferred genders should be eligible")
	}

	c := datingPersona(3, "man", 31, &DatingProfile{PreferredGenders: []string{"man"}})
	if datingEligible(a, c) {
		t.Error("One-sided preference mismatch must reject")
	}
}

func TestDatingEligible_Orientation(t *testing.T) {
	a := datingPersona(1, "woman", 30, &DatingProfile{Orientation: "lesbian"})
	b := datingPersona(2, "woman", 31, &DatingProfile{})
	if !datingEligible(a, b) {
		t.Error("Same identity should satisfy a lesbian orientation")
	}

	c := datingPersona(3, "man", 31, &DatingProfile{})
	if datingEligible(a, c) {
		t.Error("Opposite identity must reject a lesbian orientation")
	}

	d := datingPersona(4, "woman", 30, &DatingProfile{Orientation: "straight"})
	if datingEligible(d, b) {
		t.Error("Same identity must reject a straight orientation")
	}
}

func TestDatingEligible_AgeRange(t *testing.T) {
	a := datingPersona(1, "woman", 30, &DatingProfile{PreferredAgeRange: &AgeRange{Min: 28, Max: 35}})
	b := datingPersona(2, "man", 40, &DatingProfile{})
	if datingEligible(a, b) {
		t.Error("Candidate outside preferred age range must reject")
	}

	c := datingPersona(3, "man", 32, &DatingProfile{PreferredAgeRange: &AgeRange{Min: 25, Max: 29}})
	if datingEligible(a, c) {
		t.Error("Persona outside candidate's age range must reject")
	}
}

func TestDatingEligible_Dealbreakers(t *testing.T) {
	a := datingPersona(1, "woman", 30, &DatingProfile{Dealbreakers: []string{"smoking"}})
	b := datingPersona(2, "man", 31, &DatingProfile{})
	b.General.Bio = "Enjoys smoking cigars on weekends"
	if datingEligible(a, b) {
		t.Error("Dealbreaker keyword in bio must reject")
	}

	c := datingPersona(3, "man", 31, &DatingProfile{})
	c.Profile.Interests = []string{"Smoking BBQ"}
	if datingEligible(a, c) {
		t.Error("Dealbreaker keyword in interests must reject")
	}
}

func TestDatingEligible_BodyType(t *testing.T) {
	a := datingPersona(1, "woman", 30, &DatingProfile{BodyTypePreferences: []string{"athletic"}})
	b := datingPersona(2, "man", 31, &DatingProfile{Appearance: Appearance{Build: "slim"}})
	if datingEligible(a, b) {
		t.Error("Build outside stated preferences must reject")
	}

	// Unspecified build never rejects.
	c := datingPersona(3, "man", 31, &DatingProfile{})
	if !datingEligible(a, c) {
		t.Error("Missing build data should not reject")
	}
}

func TestDatingEligible_MissingProfile(t *testing.T) {
	a := datingPersona(1, "woman", 30, &DatingProfile{})
	b := datingPersona(2, "man", 31, nil)
	if datingEligible(a, b) {
		t.Error("Missing dating profile must reject")
	}
}

func TestBusinessEligible(t *testing.T) {
	founder := &Persona{ID: 1, DomainProfiles: DomainProfiles{Business: &BusinessProfile{
		Roles:        []string{"founder"},
		SeekingRoles: []string{"engineer"},
	}}}
	engineer := &Persona{ID: 2, DomainProfiles: DomainProfiles{Business: &BusinessProfile{
		Roles:        []string{"engineer"},
		SeekingRoles: []string{"founder"},
	}}}
	designer := &Persona{ID: 3, DomainProfiles: DomainProfiles{Business: &BusinessProfile{
		Roles:        []string{"designer"},
		SeekingRoles: []string{"marketer"},
	}}}

	if !businessEligible(founder, engineer) {
		t.Error("Complementary roles should be eligible")
	}
	if businessEligible(founder, designer) {
		t.Error("No role intersection must reject")
	}

	// Neither side seeking anything passes.
	open1 := &Persona{ID: 4, DomainProfiles: DomainProfiles{Business: &BusinessProfile{Roles: []string{"advisor"}}}}
	open2 := &Persona{ID: 5, DomainProfiles: DomainProfiles{Business: &BusinessProfile{Roles: []string{"investor"}}}}
	if !businessEligible(open1, open2) {
		t.Error("Two sides with no seeking lists should pass")
	}
}

func TestFriendshipEligible(t *testing.T) {
	a := &Persona{ID: 1, Profile: Profile{Interests: []string{"hiking", "chess", "jazz"}}}
	b := &Persona{ID: 2, Profile: Profile{Interests: []string{"chess", "cooking"}}}
	c := &Persona{ID: 3, Profile: Profile{Interests: []string{"sailing"}}}

	if !friendshipEligible(a, b, true) {
		t.Error("Shared interest above the floor should be eligible")
	}
	if friendshipEligible(a, c, true) {
		t.Error("No interest overlap must reject when required")
	}
	if !friendshipEligible(a, c, false) {
		t.Error("Relaxed filtering should accept any pair")
	}
}

func TestFriendshipInterests_SubProfilePreferred(t *testing.T) {
	p := &Persona{
		Profile: Profile{Interests: []string{"general"}},
		DomainProfiles: DomainProfiles{Friendship: &FriendshipProfile{
			Interests: []string{"climbing"},
		}},
	}
	got := friendshipInterests(p)
	if len(got) != 1 || got[0] != "climbing" {
		t.Errorf("Expected friendship sub-profile interests, got %v", got)
	}

	p.DomainProfiles.Friendship.Interests = nil
	got = friendshipInterests(p)
	if len(got) != 1 || got[0] != "general" {
		t.Errorf("Expected fallback to profile interests, got %v", got)
	}
}
