package store

import (
	"bytes"

	"github.com/google/btree"
)

// drain reads all remaining values of the iterator and closes it.
func drain(it Iterator) []Model {
	defer it.Close()
	var res []Model
	for ; it.Valid(); it.Next() {
		res = append(res, Model{Key: it.Key(), Value: it.Value()})
	}
	return res
}

// mergeItems combines the parent data with the local overwrites and
// deletes. Both inputs must be sorted ascending by key. Local items always
// take precedence over the parent.
func mergeItems(parent []Model, local []btree.Item) []Model {
	res := make([]Model, 0, len(parent)+len(local))
	var i, j int
	for i < len(parent) || j < len(local) {
		if j == len(local) {
			res = append(res, parent[i])
			i++
			continue
		}
		lkey := local[j].(keyer).Key()
		if i < len(parent) {
			switch cmp := bytes.Compare(parent[i].Key, lkey); {
			case cmp < 0:
				res = append(res, parent[i])
				i++
				continue
			case cmp == 0:
				// overwritten or deleted locally
				i++
			}
		}
		if set, ok := local[j].(setItem); ok {
			res = append(res, Model{Key: set.key, Value: set.value})
		}
		j++
	}
	return res
}
