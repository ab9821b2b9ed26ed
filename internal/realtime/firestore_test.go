package realtime

import (
	"testing"

	"cloud.google.com/go/firestore"
)

func TestChangeKind(t *testing.T) {
	tests := []struct {
		in   firestore.DocumentChangeKind
		want ChangeKind
	}{
		{firestore.DocumentAdded, Added},
		{firestore.DocumentModified, Modified},
		{firestore.DocumentRemoved, Removed},
	}
	for _, tt := range tests {
		if got := changeKind(tt.in); got != tt.want {
			t.Errorf("changeKind(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewFirestoreSource_DefaultCollection(t *testing.T) {
	if got := NewFirestoreSource(nil, "").collection; got != DefaultCollection {
		t.Errorf("collection = %q, want %q", got, DefaultCollection)
	}
	if got := NewFirestoreSource(nil, "clips").collection; got != "clips" {
		t.Errorf("collection = %q, want clips", got)
	}
}
