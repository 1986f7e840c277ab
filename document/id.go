package document

// IDGenerator hands out strictly increasing ids for one collection.
//
// It is not persisted. NewIDGenerator rebuilds it from the documents that are
// currently stored, so its state only depends on the document set.
// IDGenerator is not safe for concurrent use; the owning store serializes access.
type IDGenerator struct {
	next int64
}

// NewIDGenerator returns a generator seeded to max(_id)+1, or 1 if docs holds
// no ids.
func NewIDGenerator(docs []Document) *IDGenerator {
	return &IDGenerator{next: MaxID(docs) + 1}
}

// Next returns the next id and advances the sequence.
func (g *IDGenerator) Next() int64 {
	id := g.next
	g.next++
	return id
}

// Peek returns the id the next call to Next will return.
func (g *IDGenerator) Peek() int64 {
	return g.next
}

// Observe moves the sequence past id. It never moves it backwards.
func (g *IDGenerator) Observe(id int64) {
	if id >= g.next {
		g.next = id + 1
	}
}

// MaxID returns the largest numeric _id in docs, or 0.
func MaxID(docs []Document) int64 {
	var maxID int64
	for _, d := range docs {
		if id, ok := AsInt64(d[IDField]); ok && id > maxID {
			maxID = id
		}
	}
	return maxID
}
