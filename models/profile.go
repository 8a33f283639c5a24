package models

// Profile tables queried by the best-effort name directory. The engine never
// depends on these rows existing.
const (
	TalentProfilesTable   = "TalentProfiles"
	BusinessProfilesTable = "BusinessProfiles"
)
