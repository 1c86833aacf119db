// Package boltstore is a reference persistence layer for commitment
// objectives: it durably records each objective's manifest, secret
// seed, and append-only commitment log, and can rehydrate a running
// Encrypter/Decrypter pair from what's on disk after a restart.
package boltstore

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	json "github.com/nikkolasg/hexjson"
	bolt "go.etcd.io/bbolt"

	"github.com/XaviC-F/AC2/common/field"
	aclog "github.com/XaviC-F/AC2/common/log"
	"github.com/XaviC-F/AC2/core/commit"
	"github.com/XaviC-F/AC2/core/membership"
)

// FileName is the default bolt database file name written under an
// objective's working directory.
const FileName = "ac2.db"

// FilePerm is the permission bits used when opening the database file.
const FilePerm = 0o600

var (
	metaBucket  = []byte("meta")
	logBucket   = []byte("log")
	indexBucket = []byte("by_name")
)

var (
	keyNames    = []byte("names")
	keyMinCount = []byte("min_count")
	keySeed     = []byte("seed")
)

// Store persists one objective's state in a single bolt database,
// following chain/boltdb's bucket-per-concern, transaction-per-call
// shape.
type Store struct {
	sync.Mutex
	db  *bolt.DB
	log aclog.Logger
}

// Open creates or opens the bolt database at path, ensuring its
// buckets exist.
func Open(path string, l aclog.Logger) (*Store, error) {
	if l == nil {
		l = aclog.DefaultLogger()
	}
	db, err := bolt.Open(path, FilePerm, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{metaBucket, logBucket, indexBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("boltstore: creating buckets: %w", err)
	}
	return &Store{db: db, log: l}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		s.log.Errorw("closing store", "err", err)
		return err
	}
	return nil
}

// Init writes an objective's membership roster, min_count, and
// encrypter seed. It is called once, before any commitments exist.
func (s *Store) Init(hashes []string, minCount int, seed []byte) error {
	s.Lock()
	defer s.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(metaBucket)
		namesBlob, err := json.Marshal(hashes)
		if err != nil {
			return err
		}
		if err := b.Put(keyNames, namesBlob); err != nil {
			return err
		}
		if err := b.Put(keyMinCount, encodeUint32(uint32(minCount))); err != nil {
			return err
		}
		return b.Put(keySeed, seed)
	})
}

// record is the on-disk encoding of one commit.Record.
type record struct {
	Ciphertext string        `json:"ciphertext"`
	Points     []field.Point `json:"points"`
}

// Put persists a new commitment at the next sequential index, and
// updates hashedName's index to point to it. If hashedName already had
// a live commitment, its prior logBucket entry is deleted first, so at
// most one commitment per hashed name ever survives in the persisted
// log — the core's Decrypter itself makes no uniqueness check;
// replace-by-name is enforced here, one layer up.
func (s *Store) Put(hashedName string, rec commit.Record) error {
	s.Lock()
	defer s.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		ib := tx.Bucket(indexBucket)
		lb := tx.Bucket(logBucket)

		if prior := ib.Get([]byte(hashedName)); prior != nil {
			if err := lb.Delete(prior); err != nil {
				return err
			}
		}

		idx, err := lb.NextSequence()
		if err != nil {
			return err
		}

		blob, err := json.Marshal(&record{Ciphertext: rec.Ciphertext, Points: rec.Points})
		if err != nil {
			return err
		}
		if err := lb.Put(encodeUint64(idx), blob); err != nil {
			return err
		}

		return ib.Put([]byte(hashedName), encodeUint64(idx))
	})
}

// LoadDecrypter replays every persisted commitment, in insertion
// order, into a fresh Decrypter sized to the objective's roster.
func (s *Store) LoadDecrypter(opts ...commit.DecrypterOption) (*commit.Decrypter, error) {
	s.Lock()
	defer s.Unlock()

	var hashes []string
	var recs []commit.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		mb := tx.Bucket(metaBucket)
		if err := json.Unmarshal(mb.Get(keyNames), &hashes); err != nil {
			return fmt.Errorf("boltstore: decoding names: %w", err)
		}

		lb := tx.Bucket(logBucket)
		return lb.ForEach(func(_, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("boltstore: decoding commitment: %w", err)
			}
			recs = append(recs, commit.Record{Ciphertext: r.Ciphertext, Points: r.Points})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	dec := commit.NewDecrypter(len(hashes), opts...)
	for _, r := range recs {
		dec.AddCommitment(r)
	}
	return dec, nil
}

// RehydrateEncrypter reconstructs an Encrypter bit-identically from
// the persisted seed and roster, and replays the used x-coordinates
// from the commitment log so freshly issued points never collide with
// ones already on disk.
func (s *Store) RehydrateEncrypter(opts ...commit.EncrypterOption) (*commit.Encrypter, error) {
	s.Lock()
	defer s.Unlock()

	var hashes []string
	var minCount int
	var seed []byte
	var recs []record

	err := s.db.View(func(tx *bolt.Tx) error {
		mb := tx.Bucket(metaBucket)
		if err := json.Unmarshal(mb.Get(keyNames), &hashes); err != nil {
			return fmt.Errorf("boltstore: decoding names: %w", err)
		}
		mc := mb.Get(keyMinCount)
		if mc == nil {
			return fmt.Errorf("boltstore: objective not initialized")
		}
		minCount = int(decodeUint32(mc))
		seed = append([]byte{}, mb.Get(keySeed)...)

		lb := tx.Bucket(logBucket)
		return lb.ForEach(func(_, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			recs = append(recs, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	holder := membership.NewFromHashes(hashes)
	enc, err := commit.NewEncrypter(holder, minCount, seed, opts...)
	if err != nil {
		return nil, fmt.Errorf("boltstore: rehydrating encrypter: %w", err)
	}

	// Each persisted record is independently validated against the
	// objective's group size before its x-coordinates are trusted; a
	// single malformed record (e.g. written by a build with a different
	// N) is reported but does not block rehydrating the rest of the log.
	var verrs *multierror.Error
	var used []field.Elem
	for i, r := range recs {
		if len(r.Points) != holder.GroupSize() {
			verrs = multierror.Append(verrs, fmt.Errorf(
				"boltstore: record %d has %d points, want %d", i, len(r.Points), holder.GroupSize()))
			continue
		}
		for _, p := range r.Points {
			if !p.IsSentinel() {
				used = append(used, p.X)
			}
		}
	}
	enc.SetUsedXs(used)
	return enc, verrs.ErrorOrNil()
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func decodeUint32(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}
