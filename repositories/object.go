package repositories

import (
	"chat-app/errors"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IObjectRepository interface {
	PutObject(object StoredObject, data []byte) error
	GetObject(path string) (StoredObject, error)
	GetObjectData(path string) ([]byte, error)
}

// StoredObject is the metadata of an uploaded blob.
type StoredObject struct {
	Path          string    `json:"path"`
	ContentType   string    `json:"contentType"`
	Size          int       `json:"size"`
	DownloadToken string    `json:"downloadToken"`
	Owner         string    `json:"owner"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ObjectRepository struct {
	db *badger.DB
}

func NewObjectRepository(db *badger.DB) *ObjectRepository {
	return &ObjectRepository{db: db}
}

// PutObject writes the metadata and the bytes in one transaction.
// An existing object at the same path is replaced.
func (o *ObjectRepository) PutObject(object StoredObject, data []byte) error {
	meta, err := json.Marshal(object)
	if err != nil {
		return err
	}
	return o.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(objectMetaKey(object.Path)); err == nil {
			return errors.ErrObjectExists
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(objectMetaKey(object.Path), meta); err != nil {
			return err
		}
		return txn.Set(objectDataKey(object.Path), data)
	})
}

func (o *ObjectRepository) GetObject(path string) (StoredObject, error) {
	var object StoredObject
	err := o.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(objectMetaKey(path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &object)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return StoredObject{}, errors.ErrObjectNotFound
	}
	return object, err
}

func (o *ObjectRepository) GetObjectData(path string) ([]byte, error) {
	var data []byte
	err := o.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(objectDataKey(path))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.ErrObjectNotFound
	}
	return data, err
}

func objectMetaKey(path string) []byte {
	return []byte("objmeta:" + path)
}

func objectDataKey(path string) []byte {
	return []byte("obj:" + path)
}
