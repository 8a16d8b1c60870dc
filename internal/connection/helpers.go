package connection

import (
	"context"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// roundTrip submits req and waits for its completion. If ctx ends first the
// request keeps running and its buffers stay with the driver.
func (c *Connection) roundTrip(ctx context.Context, req *domain.Request) (domain.Response, error) {
	done := make(chan domain.Response, 1)
	_, err := c.Submit(ctx, req, domain.CallbackFunc(func(resp domain.Response) error {
		done <- resp
		return nil
	}))
	if err != nil {
		return domain.Response{}, err
	}

	select {
	case resp := <-done:
		return resp, nil
	case <-ctx.Done():
		return domain.Response{}, ctx.Err()
	}
}

// Get reads key into buf and returns the completion. A value larger than buf
// fails with ErrBufferTooSmall and resp.Length set to the size needed.
// buf must not be reused if Get returns a context error.
func (c *Connection) Get(ctx context.Context, col domain.CollectionID, key, buf []byte) (domain.Response, error) {
	resp, err := c.roundTrip(ctx, &domain.Request{
		Kind:       domain.KindGet,
		Collection: col,
		Key:        key,
		Buffer:     buf,
	})
	if err != nil {
		return resp, err
	}
	return resp, resp.Err()
}

// Put stores value under key.
func (c *Connection) Put(ctx context.Context, col domain.CollectionID, key, value []byte) (domain.Response, error) {
	resp, err := c.roundTrip(ctx, &domain.Request{
		Kind:       domain.KindPut,
		Collection: col,
		Key:        key,
		Value:      value,
	})
	if err != nil {
		return resp, err
	}
	return resp, resp.Err()
}

// Remove deletes key.
func (c *Connection) Remove(ctx context.Context, col domain.CollectionID, key []byte) error {
	resp, err := c.roundTrip(ctx, &domain.Request{
		Kind:       domain.KindRemove,
		Collection: col,
		Key:        key,
	})
	if err != nil {
		return err
	}
	return resp.Err()
}

// Range selects keys in [Start, End) of a collection. A nil End is
// unbounded.
type Range struct {
	Collection domain.CollectionID
	Start      []byte
	End        []byte
}

// DefaultBatchSize is the iterator buffer size used when none is given.
const DefaultBatchSize = 64 << 10

// Iterate calls fn for every entry in r, in key order. Entries alias an
// internal buffer and are only valid during the call. The buffer grows when a
// single entry does not fit. Returning an error from fn stops the iteration
// and releases the driver cursor.
func (c *Connection) Iterate(ctx context.Context, r Range, batchSize int, fn func(domain.Entry) error) error {
	if fn == nil {
		return domain.ErrInvalidArgument.WithDetails("nil iterate func")
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	start, err := c.roundTrip(ctx, &domain.Request{
		Kind:       domain.KindIterStart,
		Collection: r.Collection,
		Key:        r.Start,
		EndKey:     r.End,
	})
	if err != nil {
		return err
	}
	if err := start.Err(); err != nil {
		return err
	}

	token := start.Token
	buf := make([]byte, batchSize)
	for token != 0 {
		resp, err := c.roundTrip(ctx, &domain.Request{
			Kind:   domain.KindIterNext,
			Token:  token,
			Buffer: buf,
		})
		if err != nil {
			c.finish(token)
			return err
		}
		if resp.Status == domain.StatusTooBig && resp.Length > uint64(len(buf)) {
			buf = make([]byte, resp.Length)
			continue
		}
		if err := resp.Err(); err != nil {
			return err
		}

		entries, err := domain.DecodeEntries(buf[:resp.Length])
		if err != nil {
			c.finish(resp.Token)
			return err
		}
		for _, e := range entries {
			if err := fn(e); err != nil {
				c.finish(resp.Token)
				return err
			}
		}
		token = resp.Token
	}
	return nil
}

// finish releases an iterator cursor that was not run to exhaustion.
func (c *Connection) finish(token uint64) {
	if token == 0 {
		return
	}
	_, err := c.Submit(context.Background(), &domain.Request{
		Kind:  domain.KindIterFinish,
		Token: token,
	}, domain.CallbackFunc(func(domain.Response) error { return nil }))
	if err != nil {
		c.logger.Debug("iterator finish not submitted", "error", err)
	}
}
