package device

// Registry maps device identities to records, keeping insertion order.
type Registry struct {
	records []*Record
	index   map[string]*Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]*Record),
	}
}

// Add registers a new record for id holding sub.
//
// When id is already present the existing record is returned with
// added set to false. The registry keeps the subscription it already
// has and cancels sub, so a redelivered add never leaves a second live
// subscription behind.
func (r *Registry) Add(id string, kind Kind, sub Subscription) (rec *Record, added bool) {
	if existing, ok := r.index[id]; ok {
		if sub != nil && sub != existing.sub {
			sub.Cancel()
		}
		return existing, false
	}

	rec = &Record{
		ID:   id,
		Kind: kind,
		sub:  sub,
	}
	r.records = append(r.records, rec)
	r.index[id] = rec

	return rec, true
}

// Remove revokes the record's subscription, drops its view reference
// and deletes it. Detaching the view element itself is the caller's
// job and must happen first. Unknown ids are ignored.
func (r *Registry) Remove(id string) (*Record, bool) {
	rec, ok := r.index[id]
	if !ok {
		return nil, false
	}

	rec.revoke()
	rec.DetachView()

	delete(r.index, id)
	for i, candidate := range r.records {
		if candidate == rec {
			r.records = append(r.records[:i], r.records[i+1:]...)
			break
		}
	}

	return rec, true
}

// Lookup returns the record for id.
func (r *Registry) Lookup(id string) (*Record, bool) {
	rec, ok := r.index[id]
	return rec, ok
}

// Records returns the live records in insertion order. The slice is a
// copy; the records are not.
func (r *Registry) Records() []*Record {
	out := make([]*Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of live records.
func (r *Registry) Len() int {
	return len(r.records)
}

// Clear revokes every subscription and empties the registry.
func (r *Registry) Clear() {
	for _, rec := range r.records {
		rec.revoke()
		rec.DetachView()
	}
	r.records = nil
	r.index = make(map[string]*Record)
}
