package device

// Select picks the record that represents the panel icon.
//
// A hint naming a live record wins. Otherwise the Battery or UPS record
// with the highest percentage is chosen; on equal percentages the one
// added first wins. ok is false when no candidate exists.
func Select(reg *Registry, hint string) (id string, ok bool) {
	if hint != "" {
		if _, found := reg.Lookup(hint); found {
			return hint, true
		}
	}

	var best *Record
	for _, rec := range reg.records {
		if !rec.Kind.HasCharge() {
			continue
		}
		if best == nil || rec.Percentage > best.Percentage {
			best = rec
		}
	}

	if best == nil {
		return "", false
	}

	return best.ID, true
}
