package loopback

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// tsLen is the size of the write timestamp stored ahead of every value.
const tsLen = 8

// iterState is the cursor behind a continuation token.
type iterState struct {
	mu         sync.Mutex
	collection domain.CollectionID
	next       []byte // next user key to visit (inclusive)
	end        []byte // exclusive bound, nil for unbounded
}

func storeKey(col domain.CollectionID, key []byte) []byte {
	out := make([]byte, 4+len(key))
	binary.BigEndian.PutUint32(out, uint32(col))
	copy(out[4:], key)
	return out
}

func collectionPrefix(col domain.CollectionID) []byte {
	return storeKey(col, nil)
}

// execute runs one request and returns its completion record.
func (d *Driver) execute(req *domain.Request) domain.Completion {
	switch req.Kind {
	case domain.KindGet:
		return d.get(req)
	case domain.KindPut:
		return d.put(req)
	case domain.KindRemove:
		return d.remove(req)
	case domain.KindIterStart:
		return d.iterStart(req)
	case domain.KindIterNext:
		return d.iterNext(req)
	case domain.KindIterFinish:
		return d.iterFinish(req)
	default:
		return domain.Completion{Status: domain.StatusInvalid}
	}
}

func (d *Driver) get(req *domain.Request) domain.Completion {
	var c domain.Completion
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(req.Collection, req.Key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			c = fillValue(val, req.Buffer)
			return nil
		})
	})
	if err != nil {
		return d.failure(req, err)
	}
	return c
}

// fillValue copies a stored value into buf. A value that does not fit is
// reported as StatusTooBig with the size the caller needs.
func fillValue(stored, buf []byte) domain.Completion {
	ts := binary.BigEndian.Uint64(stored[:tsLen])
	val := stored[tsLen:]
	if len(val) > len(buf) {
		return domain.Completion{
			Status:    domain.StatusTooBig,
			Length:    uint64(len(val)),
			Timestamp: ts,
		}
	}
	n := copy(buf, val)
	return domain.Completion{
		Length:    uint64(n),
		Timestamp: ts,
	}
}

func (d *Driver) put(req *domain.Request) domain.Completion {
	ts := uint64(d.now().UnixNano())
	stored := make([]byte, tsLen+len(req.Value))
	binary.BigEndian.PutUint64(stored, ts)
	copy(stored[tsLen:], req.Value)

	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(req.Collection, req.Key), stored)
	})
	if err != nil {
		return d.failure(req, err)
	}
	return domain.Completion{
		Length:    uint64(len(req.Value)),
		Timestamp: ts,
	}
}

func (d *Driver) remove(req *domain.Request) domain.Completion {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(req.Collection, req.Key))
	})
	if err != nil {
		return d.failure(req, err)
	}
	return domain.Completion{}
}

func (d *Driver) iterStart(req *domain.Request) domain.Completion {
	st := &iterState{
		collection: req.Collection,
		next:       bytes.Clone(req.Key),
		end:        bytes.Clone(req.EndKey),
	}
	token := d.nextToken.Add(1)

	d.itersMu.Lock()
	d.iters[token] = st
	d.itersMu.Unlock()

	return domain.Completion{Token: token}
}

// iterNext encodes as many entries as fit into the request buffer. The
// returned token is zero once the range is exhausted, and the cursor is
// dropped at that point.
func (d *Driver) iterNext(req *domain.Request) domain.Completion {
	d.itersMu.Lock()
	st, ok := d.iters[req.Token]
	d.itersMu.Unlock()
	if !ok {
		return domain.Completion{Status: domain.StatusBadToken}
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	prefix := collectionPrefix(st.collection)
	var (
		out       = req.Buffer[:0]
		count     int
		exhausted = true
		needed    int
	)

	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(storeKey(st.collection, st.next)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.Key()[len(prefix):]
			if st.end != nil && bytes.Compare(key, st.end) >= 0 {
				break
			}
			if count == d.cfg.IterBatchLimit {
				exhausted = false
				break
			}

			stored, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			val := stored[tsLen:]
			size := domain.EntrySize(key, val)
			if len(out)+size > len(req.Buffer) {
				exhausted = false
				if count == 0 {
					needed = size
				}
				break
			}
			out = domain.AppendEntry(out, key, val)
			count++
			// successor of key: key followed by a zero byte
			st.next = append(bytes.Clone(key), 0)
		}
		return nil
	})
	if err != nil {
		return d.failure(req, err)
	}

	if needed > 0 {
		return domain.Completion{
			Status: domain.StatusTooBig,
			Length: uint64(needed),
			Token:  req.Token,
		}
	}

	c := domain.Completion{Length: uint64(len(out))}
	if exhausted {
		d.itersMu.Lock()
		delete(d.iters, req.Token)
		d.itersMu.Unlock()
	} else {
		c.Token = req.Token
	}
	return c
}

func (d *Driver) iterFinish(req *domain.Request) domain.Completion {
	d.itersMu.Lock()
	_, ok := d.iters[req.Token]
	delete(d.iters, req.Token)
	d.itersMu.Unlock()

	if !ok {
		return domain.Completion{Status: domain.StatusBadToken}
	}
	return domain.Completion{}
}

// failure maps a Badger error to a completion status.
func (d *Driver) failure(req *domain.Request, err error) domain.Completion {
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.Completion{Status: domain.StatusNotFound}
	case errors.Is(err, badger.ErrTxnTooBig):
		return domain.Completion{Status: domain.StatusTooBig}
	case errors.Is(err, badger.ErrDBClosed):
		return domain.Completion{Status: domain.StatusShutdown}
	default:
		d.logger.Error("loopback request failed",
			"kind", req.Kind.String(),
			"collection", req.Collection,
			"error", err)
		return domain.Completion{Status: domain.StatusIO}
	}
}
