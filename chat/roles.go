package chat

// RolesFromBadges maps a user's Twitch badge set onto the ledger's role names.
// Which badges grant which tier is deployment configuration; the ledger itself
// only ever sees "Premium" and "Lite".
func RolesFromBadges(badges map[string]int, premiumBadges, liteBadges []string) []string {
	var roles []string
	if hasAny(badges, premiumBadges) {
		roles = append(roles, "Premium")
	}
	if hasAny(badges, liteBadges) {
		roles = append(roles, "Lite")
	}
	return roles
}

func hasAny(badges map[string]int, names []string) bool {
	for _, n := range names {
		if _, ok := badges[n]; ok {
			return true
		}
	}
	return false
}
