package game

import "math/rand"

// buildRoleBag lays out the unshuffled role list for n seats. Mafia first
// (explicit count or floor(n/4)), then the custom-mode one-shots, then
// doctors and detectives while capacity remains, citizens pad the rest.
func buildRoleBag(n int, s Settings) []Role {
	mafiaCount := s.MafiaCount
	if mafiaCount <= 0 {
		mafiaCount = n / 4
	}
	bag := make([]Role, 0, n)
	for i := 0; i < mafiaCount && len(bag) < n; i++ {
		bag = append(bag, RoleMafia)
	}
	if s.Mode == ModeCustom {
		if len(bag) < n {
			bag = append(bag, RoleGuardianAngel)
		}
		if len(bag) < n {
			bag = append(bag, RoleJoker)
		}
	}
	for i := 0; i < s.DoctorCount && len(bag) < n; i++ {
		bag = append(bag, RoleDoctor)
	}
	for i := 0; i < s.DetectiveCount && len(bag) < n; i++ {
		bag = append(bag, RoleDetective)
	}
	for len(bag) < n {
		bag = append(bag, RoleCitizen)
	}
	return bag
}

// assignRoles deals a shuffled bag over the seats in join order and stamps
// the 1..N seat numbers. Numbers are never reassigned for the rest of the
// game, even if a seat is abandoned.
func (r *Room) assignRoles() {
	bag := buildRoleBag(len(r.players), r.Settings)
	rand.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
	for i, p := range r.players {
		p.Number = i + 1
		p.Role = bag[i]
		p.OriginalRole = bag[i]
		p.Alive = true
		p.Lynched = false
		p.UsedSpecialAction = false
		p.Ready = false
	}
}

// mafiaTeammates lists the other mafia members for private delivery to p.
func (r *Room) mafiaTeammates(p *Player) []map[string]any {
	out := make([]map[string]any, 0)
	for _, other := range r.players {
		if other.ID == p.ID || other.Role != RoleMafia {
			continue
		}
		out = append(out, map[string]any{"id": other.ID, "name": other.Name})
	}
	return out
}
