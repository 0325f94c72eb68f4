package spread

import (
	"fmt"

	"go.etcd.io/bbolt"
)

// StoreStats describes the space taken by a Bolt-backed store.
type StoreStats struct {
	Keys      int
	DataSize  int
	DataAlloc int
}

func (ss *StoreStats) String() string {
	return fmt.Sprintf("keys = %d, data_size = %d, data_alloc = %d", ss.Keys, ss.DataSize, ss.DataAlloc)
}

// Stats returns Bolt's page statistics of the store bucket.
func (s *BoltStorage) Stats() (StoreStats, error) {
	var result StoreStats
	err := s.bdb.View(func(btx *bbolt.Tx) error {
		b := btx.Bucket(boltBucketName)
		if b == nil {
			return nil
		}
		bs := b.Stats()
		result = StoreStats{
			Keys:      bs.KeyN,
			DataSize:  bs.LeafInuse,
			DataAlloc: bs.BranchAlloc + bs.LeafAlloc,
		}
		return nil
	})
	return result, err
}
