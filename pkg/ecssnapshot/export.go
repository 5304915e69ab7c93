package ecssnapshot

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
)

var (
	bucketComponents = []byte("components")
	bucketResources  = []byte("resources")
)

// Export writes every live component and resource in store to a bbolt
// file at path, creating or truncating it. Restore reads what Export
// wrote.
func Export(path string, store *ecsstore.Store) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("ecssnapshot: open %s: %w", path, err)
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		components, err := tx.CreateBucketIfNotExists(bucketComponents)
		if err != nil {
			return err
		}
		resources, err := tx.CreateBucketIfNotExists(bucketResources)
		if err != nil {
			return err
		}

		for _, w := range store.AllComponents() {
			key, data, err := encodeComponent(w)
			if err != nil {
				return err
			}
			if err := components.Put([]byte(key), data); err != nil {
				return fmt.Errorf("ecssnapshot: write component %s: %w", key, err)
			}
		}

		for kind, payload := range store.AllResources() {
			key, data, err := encodeResource(kind, payload)
			if err != nil {
				return err
			}
			if err := resources.Put([]byte(key), data); err != nil {
				return fmt.Errorf("ecssnapshot: write resource %s: %w", key, err)
			}
		}
		return nil
	})
}
