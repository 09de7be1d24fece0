package orm

import (
	"encoding/binary"
	"testing"

	"github.com/iov-one/escrowd/errors"
	"github.com/iov-one/escrowd/store"
	"github.com/iov-one/escrowd/weavetest/assert"
)

type counter struct {
	Owner []byte
	Count uint64
}

func (c *counter) Marshal() ([]byte, error)  { return Marshal(c) }
func (c *counter) Unmarshal(raw []byte) error { return Unmarshal(raw, c) }

func (c *counter) Validate() error {
	if len(c.Owner) == 0 {
		return errors.Wrap(errors.ErrEmpty, "owner")
	}
	return nil
}

func countersByOwner(m Model) ([]byte, error) {
	c, ok := m.(*counter)
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%T", m)
	}
	return c.Owner, nil
}

func key(n uint64) []byte {
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, n)
	return raw
}

func TestModelBucket(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	assert.Nil(t, b.Put(db, []byte("c1"), &counter{Owner: []byte("alice"), Count: 1}))

	var c1 counter
	assert.Nil(t, b.One(db, []byte("c1"), &c1))
	assert.Equal(t, uint64(1), c1.Count)
	assert.Nil(t, b.Has(db, []byte("c1")))

	assert.Nil(t, b.Delete(db, []byte("c1")))
	assert.IsErr(t, errors.ErrNotFound, b.Delete(db, []byte("unknown")))
	assert.IsErr(t, errors.ErrNotFound, b.One(db, []byte("c1"), &c1))
	assert.IsErr(t, errors.ErrNotFound, b.Has(db, []byte("c1")))
}

func TestModelBucketRejectsInvalid(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{})

	assert.IsErr(t, errors.ErrEmpty, b.Put(db, []byte("c1"), &counter{Count: 1}))
	assert.IsErr(t, errors.ErrEmpty, b.Put(db, nil, &counter{Owner: []byte("a")}))
	assert.IsErr(t, errors.ErrInvalidType, b.Put(db, []byte("c1"), &MultiRef{Refs: [][]byte{[]byte("x")}}))
}

func TestModelBucketByIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{}, WithIndex("owner", countersByOwner, false))

	assert.Nil(t, b.Put(db, key(1), &counter{Owner: []byte("alice"), Count: 1}))
	assert.Nil(t, b.Put(db, key(2), &counter{Owner: []byte("bob"), Count: 2}))
	assert.Nil(t, b.Put(db, key(3), &counter{Owner: []byte("alice"), Count: 3}))

	cases := map[string]struct {
		Owner     string
		IndexName string
		WantKeys  [][]byte
		WantCount []uint64
		WantErr   *errors.Error
	}{
		"find none": {
			Owner:     "charlie",
			IndexName: "owner",
		},
		"find one": {
			Owner:     "bob",
			IndexName: "owner",
			WantKeys:  [][]byte{key(2)},
			WantCount: []uint64{2},
		},
		"find many": {
			Owner:     "alice",
			IndexName: "owner",
			WantKeys:  [][]byte{key(1), key(3)},
			WantCount: []uint64{1, 3},
		},
		"unknown index": {
			Owner:     "alice",
			IndexName: "color",
			WantErr:   ErrInvalidIndex,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var found []*counter
			keys, err := b.ByIndex(db, tc.IndexName, []byte(tc.Owner), &found)
			if !tc.WantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
			if tc.WantErr != nil {
				return
			}
			assert.Equal(t, tc.WantKeys, keys)
			if len(found) != len(tc.WantCount) {
				t.Fatalf("want %d results, got %d", len(tc.WantCount), len(found))
			}
			for i, c := range found {
				assert.Equal(t, tc.WantCount[i], c.Count)
			}
		})
	}
}

func TestModelBucketIndexFollowsUpdates(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{}, WithIndex("owner", countersByOwner, false))

	assert.Nil(t, b.Put(db, key(1), &counter{Owner: []byte("alice"), Count: 1}))
	assert.Nil(t, b.Put(db, key(1), &counter{Owner: []byte("bob"), Count: 1}))

	var found []counter
	keys, err := b.ByIndex(db, "owner", []byte("alice"), &found)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(keys))

	keys, err = b.ByIndex(db, "owner", []byte("bob"), &found)
	assert.Nil(t, err)
	assert.Equal(t, [][]byte{key(1)}, keys)

	assert.Nil(t, b.Delete(db, key(1)))
	found = nil
	keys, err = b.ByIndex(db, "owner", []byte("bob"), &found)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(keys))
}

func TestUniqueIndex(t *testing.T) {
	db := store.MemStore()
	b := NewModelBucket("cnts", &counter{}, WithIndex("owner", countersByOwner, true))

	assert.Nil(t, b.Put(db, key(1), &counter{Owner: []byte("alice")}))
	err := b.Put(db, key(2), &counter{Owner: []byte("alice")})
	assert.IsErr(t, errors.ErrDuplicate, err)

	// Saving the same entity again must not conflict with itself.
	assert.Nil(t, b.Put(db, key(1), &counter{Owner: []byte("alice"), Count: 7}))
}
