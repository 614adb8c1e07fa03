package credentials

// Store is the capability shared by the orchestrating process and its askpass helpers.
type Store interface {
	// Get returns the secret recorded for requestKey and whether one was recorded.
	Get(requestKey string) (string, bool, error)
	// Put records secret for requestKey, replacing any previous value.
	Put(requestKey string, secret string) error
}

// SegmentStore implements Store on top of a Segment.
type SegmentStore struct {
	segment *Segment
}

// NewSegmentStore wraps segment as a Store.
func NewSegmentStore(segment *Segment) *SegmentStore {
	return &SegmentStore{segment: segment}
}

// Get reads the latest snapshot and looks up requestKey by exact match.
func (store *SegmentStore) Get(requestKey string) (string, bool, error) {
	snapshot, loadError := store.segment.Load()
	if loadError != nil {
		return "", false, loadError
	}
	secret, found := snapshot[requestKey]
	return secret, found, nil
}

// Put inserts or overwrites requestKey and republishes the full snapshot.
func (store *SegmentStore) Put(requestKey string, secret string) error {
	return store.segment.Update(func(snapshot map[string]string) {
		snapshot[requestKey] = secret
	})
}
