package ecssnapshot

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/ecspanse-go/ecspanse/pkg/ecsstore"
)

// Restore reads a bbolt file written by Export and upserts every
// record into store by key: a component already present for the same
// (entity, kind) is removed and replaced, payload and tags, by the
// restored row; resources go through Store.UpsertResource. A Kind named in the file that is not
// registered in this process is an error — Restore refuses a partial,
// silently-lossy load.
func Restore(path string, store *ecsstore.Store) error {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return fmt.Errorf("ecssnapshot: open %s: %w", path, err)
	}
	defer db.Close()

	return db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(bucketComponents); b != nil {
			var batch []ecsstore.ComponentWrite
			err := b.ForEach(func(_, data []byte) error {
				w, err := decodeComponent(data)
				if err != nil {
					return err
				}
				batch = append(batch, w)
				return nil
			})
			if err != nil {
				return err
			}
			if len(batch) > 0 {
				var existing []ecsstore.ComponentKey
				for _, w := range batch {
					if store.HasComponent(w.Entity, w.Kind) {
						existing = append(existing, ecsstore.ComponentKey{Entity: w.Entity, Kind: w.Kind})
					}
				}
				if err := store.Delete(existing); err != nil {
					return fmt.Errorf("ecssnapshot: restore components: %w", err)
				}
				if err := store.Insert(batch); err != nil {
					return fmt.Errorf("ecssnapshot: restore components: %w", err)
				}
			}
		}

		if b := tx.Bucket(bucketResources); b != nil {
			err := b.ForEach(func(_, data []byte) error {
				kind, payload, err := decodeResource(data)
				if err != nil {
					return err
				}
				store.UpsertResource(kind, payload)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
