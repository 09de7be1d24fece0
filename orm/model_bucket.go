package orm

import (
	"reflect"

	"github.com/iov-one/escrowd"
	"github.com/iov-one/escrowd/errors"
)

// Model is implemented by any entity that can be stored using ModelBucket.
type Model interface {
	escrowd.Persistent
	Validate() error
}

// ModelBucket is implemented by buckets that operates on Models.
type ModelBucket interface {
	// One query the database for a single model instance. Lookup is done
	// by the primary index key. Result is loaded into given destination
	// model.
	// This method returns ErrNotFound if the entity does not exist in the
	// database.
	// If given model type cannot be used to contain stored entity,
	// ErrInvalidType is returned.
	One(db escrowd.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns nil if an entity with given primary key value exists. It
	// returns ErrNotFound if no entity can be found.
	Has(db escrowd.ReadOnlyKVStore, key []byte) error

	// ByIndex returns all models that are referenced by the given index
	// value. Destination must be a pointer to a slice of models. Primary
	// keys of the found models are returned.
	ByIndex(db escrowd.ReadOnlyKVStore, indexName string, key []byte, dest interface{}) ([][]byte, error)

	// Put saves given model in the database. All indexes are updated.
	Put(db escrowd.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the database.
	// It returns ErrNotFound if an entity with given key does not exist.
	Delete(db escrowd.KVStore, key []byte) error
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures the bucket to build an index with given name. All
// entities stored in the bucket are indexed using value returned by the
// indexer function. If an index is unique, there can be only one entity
// referenced per index value.
func WithIndex(name string, indexer Indexer, unique bool) ModelBucketOption {
	return func(mb *modelBucket) {
		if _, ok := mb.indexes[name]; ok {
			panic("index " + name + " already registered")
		}
		mb.indexes[name] = newCompactIndex(mb.name, name, indexer, unique)
	}
}

// NewModelBucket returns a ModelBucket instance that stores models under
// keys prefixed with given name. Example model is used to build new
// instances when loading stored entities.
func NewModelBucket(name string, example Model, opts ...ModelBucketOption) ModelBucket {
	t := reflect.TypeOf(example)
	if t.Kind() != reflect.Ptr {
		panic("model must be a pointer")
	}
	if !isBucketName(name) {
		panic("invalid bucket name " + name)
	}
	mb := &modelBucket{
		name:    name,
		prefix:  []byte(name + ":"),
		model:   t.Elem(),
		indexes: make(map[string]compactIndex),
	}
	for _, fn := range opts {
		fn(mb)
	}
	return mb
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes map[string]compactIndex
}

var _ ModelBucket = (*modelBucket)(nil)

func (mb *modelBucket) dbKey(key []byte) []byte {
	return append(append([]byte(nil), mb.prefix...), key...)
}

func (mb *modelBucket) One(db escrowd.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest) != reflect.PtrTo(mb.model) {
		return errors.Wrapf(errors.ErrInvalidType, "%s cannot be represented as %T", mb.model, dest)
	}
	raw, err := db.Get(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.model)
	}
	return dest.Unmarshal(raw)
}

func (mb *modelBucket) Has(db escrowd.ReadOnlyKVStore, key []byte) error {
	ok, err := db.Has(mb.dbKey(key))
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.model)
	}
	return nil
}

func (mb *modelBucket) ByIndex(db escrowd.ReadOnlyKVStore, indexName string, key []byte, dest interface{}) ([][]byte, error) {
	idx, ok := mb.indexes[indexName]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidIndex, "bucket %q has no index %q", mb.name, indexName)
	}

	resultSlice := reflect.ValueOf(dest)
	if resultSlice.Kind() != reflect.Ptr || resultSlice.Elem().Kind() != reflect.Slice {
		return nil, errors.Wrapf(errors.ErrInvalidType, "destination must be a pointer to a slice, got %T", dest)
	}
	elemType := resultSlice.Elem().Type().Elem()
	byPtr := elemType.Kind() == reflect.Ptr
	if (byPtr && elemType.Elem() != mb.model) || (!byPtr && elemType != mb.model) {
		return nil, errors.Wrapf(errors.ErrInvalidType, "%s cannot be represented as %s", mb.model, elemType)
	}

	keys, err := idx.Keys(db, key)
	if err != nil {
		return nil, err
	}

	collected := resultSlice.Elem()
	for _, pk := range keys {
		m := reflect.New(mb.model)
		if err := mb.One(db, pk, m.Interface().(Model)); err != nil {
			return nil, errors.Wrapf(err, "index %q references %X", indexName, pk)
		}
		if byPtr {
			collected = reflect.Append(collected, m)
		} else {
			collected = reflect.Append(collected, m.Elem())
		}
	}
	resultSlice.Elem().Set(collected)
	return keys, nil
}

func (mb *modelBucket) Put(db escrowd.KVStore, key []byte, m Model) error {
	if reflect.TypeOf(m) != reflect.PtrTo(mb.model) {
		return errors.Wrapf(errors.ErrInvalidType, "cannot store %T in %q bucket", m, mb.name)
	}
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "key")
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}

	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	for _, idx := range mb.indexes {
		if err := idx.Update(db, key, prev, m); err != nil {
			return errors.Wrap(err, "cannot update index")
		}
	}

	raw, err := m.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal")
	}
	if err := db.Set(mb.dbKey(key), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (mb *modelBucket) Delete(db escrowd.KVStore, key []byte) error {
	prev, err := mb.load(db, key)
	if err != nil {
		return err
	}
	if prev == nil {
		return errors.Wrapf(errors.ErrNotFound, "%s not in the store", mb.model)
	}
	for _, idx := range mb.indexes {
		if err := idx.Update(db, key, prev, nil); err != nil {
			return errors.Wrap(err, "cannot update index")
		}
	}
	if err := db.Delete(mb.dbKey(key)); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// load returns the model stored under given key or nil if it does not exist.
func (mb *modelBucket) load(db escrowd.ReadOnlyKVStore, key []byte) (Model, error) {
	m := reflect.New(mb.model).Interface().(Model)
	switch err := mb.One(db, key, m); {
	case err == nil:
		return m, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, err
	}
}

func isBucketName(name string) bool {
	if len(name) < 3 || len(name) > 10 {
		return false
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return true
}
