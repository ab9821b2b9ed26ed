package realtime

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// DefaultCollection is the Firestore collection the backend writes media to.
const DefaultCollection = "media"

// FirestoreSource watches the newest document of a Firestore collection.
type FirestoreSource struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreSource watches collection on client. An empty collection
// means DefaultCollection.
func NewFirestoreSource(client *firestore.Client, collection string) *FirestoreSource {
	if collection == "" {
		collection = DefaultCollection
	}
	return &FirestoreSource{client: client, collection: collection}
}

// Watch listens to the single newest document by created_at and reports
// insertions and in-place updates.
func (s *FirestoreSource) Watch(ctx context.Context, fn func([]Change)) error {
	it := s.client.Collection(s.collection).
		OrderBy("created_at", firestore.Desc).
		Limit(1).
		Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("listening to %s: %w", s.collection, err)
		}

		changes := make([]Change, 0, len(snap.Changes))
		for _, dc := range snap.Changes {
			changes = append(changes, Change{
				Kind: changeKind(dc.Kind),
				Doc:  documentFromData(dc.Doc.Ref.ID, dc.Doc.Data()),
			})
		}
		if len(changes) > 0 {
			fn(changes)
		}
	}
}

func changeKind(k firestore.DocumentChangeKind) ChangeKind {
	switch k {
	case firestore.DocumentAdded:
		return Added
	case firestore.DocumentRemoved:
		return Removed
	default:
		return Modified
	}
}
