package store

import "testing"

func samplePage() ListPage {
	return ListPage{Objects: []ObjectInfo{
		{Key: "a.csv", Size: 100},
		{Key: "b.json", Size: 200},
		{Key: "c.parquet", Size: 300},
	}}
}

func TestListingIterator_Basic(t *testing.T) {
	it := NewListingIterator(samplePage())
	defer it.Close()

	var keys []string
	for it.Next() {
		keys = append(keys, it.Object().Key)
	}

	if it.Err() != nil {
		t.Errorf("unexpected error: %v", it.Err())
	}
	if len(keys) != 3 || keys[0] != "a.csv" || keys[2] != "c.parquet" {
		t.Errorf("unexpected keys in store order: %v", keys)
	}
}

func TestListingIterator_CloseIdempotent(t *testing.T) {
	it := NewListingIterator(samplePage())

	for i := 0; i < 3; i++ {
		if err := it.Close(); err != nil {
			t.Errorf("Close() iteration %d returned error: %v", i, err)
		}
	}
}

func TestListingIterator_NextAfterClose(t *testing.T) {
	it := NewListingIterator(samplePage())

	if !it.Next() {
		t.Fatal("expected Next() to return true")
	}
	_ = it.Close()

	if it.Next() {
		t.Error("Next() must return false after Close()")
	}
}

func TestListingIterator_NextAfterExhaustion(t *testing.T) {
	it := NewListingIterator(ListPage{Objects: []ObjectInfo{{Key: "a"}}})
	defer it.Close()

	for it.Next() {
	}

	for i := 0; i < 3; i++ {
		if it.Next() {
			t.Errorf("Next() iteration %d should return false after exhaustion", i)
		}
	}
	if it.Err() != nil {
		t.Errorf("unexpected error after exhaustion: %v", it.Err())
	}
}

func TestIterate_Empty(t *testing.T) {
	it := Iterate(ListPage{})
	if _, ok := it.(*EmptyIterator); !ok {
		t.Fatalf("expected *EmptyIterator, got %T", it)
	}
	if it.Next() {
		t.Error("Next() should return false for empty iterator")
	}
	if it.Object() != (ObjectInfo{}) {
		t.Error("Object() should be zero")
	}
	if err := it.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}
