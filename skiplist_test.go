package neo

import "testing"

func TestPostingSkipListInsertAndSeek(t *testing.T) {
	sl := NewPostingSkipList()
	keys := []PostingKey{
		{Doc: 5, Pos: 10}, {Doc: 1, Pos: 3}, {Doc: 5, Pos: 2}, {Doc: 9, Pos: 0},
	}
	for _, k := range keys {
		sl.Insert(k)
	}
	if sl.Len() != len(keys) {
		t.Fatalf("Len() = %d, want %d", sl.Len(), len(keys))
	}

	got, ok := sl.SeekGE(PostingKey{Doc: 5, Pos: 0})
	if !ok || got != (PostingKey{Doc: 5, Pos: 2}) {
		t.Fatalf("SeekGE(5,0) = %+v, %v", got, ok)
	}

	got, ok = sl.SeekGE(PostingKey{Doc: 10, Pos: 0})
	if ok {
		t.Fatalf("SeekGE(10,0) should find nothing, got %+v", got)
	}
}

func TestPostingSkipListInsertIsIdempotent(t *testing.T) {
	sl := NewPostingSkipList()
	key := PostingKey{Doc: 3, Pos: 7}
	sl.Insert(key)
	sl.Insert(key)
	if sl.Len() != 1 {
		t.Fatalf("duplicate Insert grew the set: Len() = %d", sl.Len())
	}
	if !sl.Contains(key) {
		t.Fatal("Contains() = false for inserted key")
	}
}

func TestPostingSkipListIteratorAscending(t *testing.T) {
	sl := NewPostingSkipList()
	for _, k := range []PostingKey{{Doc: 3, Pos: 1}, {Doc: 1, Pos: 9}, {Doc: 2, Pos: 0}} {
		sl.Insert(k)
	}
	it := sl.Iterator()
	var last PostingKey
	first := true
	count := 0
	for it.HasNext() {
		k := it.Next()
		if !first && !last.Less(k) {
			t.Fatalf("iterator not ascending: %+v then %+v", last, k)
		}
		last, first = k, false
		count++
	}
	if count != 3 {
		t.Fatalf("iterated %d keys, want 3", count)
	}
}

func TestPostingKeyLess(t *testing.T) {
	a := PostingKey{Doc: 1, Pos: 100}
	b := PostingKey{Doc: 2, Pos: 0}
	if !a.Less(b) {
		t.Fatal("lower DocID should sort first regardless of Pos")
	}
	if b.Less(a) {
		t.Fatal("higher DocID should not sort first")
	}
}
