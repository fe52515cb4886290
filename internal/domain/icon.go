package domain

// TournamentIcon maps a tournament name to its icon URL.
type TournamentIcon struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IconDocument is the whole icon collection, persisted as one object.
// Merges are by name: an existing name is never overwritten.
type IconDocument struct {
	Icons []TournamentIcon `json:"icons"`
}

// Merge appends icons whose names are not already present and reports
// how many were added.
func (d *IconDocument) Merge(incoming []TournamentIcon) int {
	seen := make(map[string]struct{}, len(d.Icons))
	for _, ic := range d.Icons {
		seen[ic.Name] = struct{}{}
	}
	added := 0
	for _, ic := range incoming {
		if _, ok := seen[ic.Name]; ok {
			continue
		}
		seen[ic.Name] = struct{}{}
		d.Icons = append(d.Icons, ic)
		added++
	}
	return added
}
