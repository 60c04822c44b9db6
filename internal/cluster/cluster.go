// Package cluster is the process-coordination substrate for distributed
// solves. A fixed-size group of processes forms a star rooted at rank 0 over
// plain TCP; the collectives (reduce and broadcast) are blocking, and every
// rank must call them the same number of times in the same order or the
// group deadlocks. There is no ambient initialization state: the Context is
// created explicitly at process start and passed to everything that needs
// the group.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

// ErrUninitializedRuntime is returned when a collective is attempted on a
// missing or closed Context. Collectives on an uninitialized runtime are
// guarded here because they would otherwise hang the whole group.
var ErrUninitializedRuntime = errors.New("cluster: runtime not initialized")

const handshakeMagic uint32 = 0x52435331 // "RCS1"

// Context is one process's membership in the group. It is safe to share
// within a process but collectives must not be called concurrently.
type Context struct {
	rank int
	size int

	// rank 0 holds one conn per peer rank (index 0 unused); every other
	// rank holds a single conn to rank 0.
	peers []net.Conn
	root  net.Conn

	closed bool
}

func (c *Context) Rank() int { return c.rank }
func (c *Context) Size() int { return c.size }

// Ready reports whether collectives may be attempted.
func (c *Context) Ready() error {
	if c == nil || c.closed || (c.rank == 0 && c.peers == nil) || (c.rank != 0 && c.root == nil) {
		return ErrUninitializedRuntime
	}
	return nil
}

func (c *Context) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	var errs []error
	if c.root != nil {
		errs = append(errs, c.root.Close())
	}
	for _, conn := range c.peers {
		if conn != nil {
			errs = append(errs, conn.Close())
		}
	}
	return errors.Join(errs...)
}

// Listener accepts the group on rank 0. Splitting listen from accept lets
// the caller learn the bound address (port 0 picks a free one) before the
// rest of the group dials in.
type Listener struct {
	ln net.Listener
}

func NewListener(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("cluster: listen: %w", err)
	}
	return &Listener{ln: ln}, nil
}

func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Context blocks until all size-1 peers have joined and returns the rank-0
// context. The listener is closed either way.
func (l *Listener) Context(ctx context.Context, size int) (*Context, error) {
	defer l.ln.Close()

	if size < 1 {
		return nil, fmt.Errorf("cluster: group size %d", size)
	}

	stop := context.AfterFunc(ctx, func() { l.ln.Close() })
	defer stop()

	peers := make([]net.Conn, size)
	joined := 0
	for joined < size-1 {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			closeAll(peers)
			return nil, fmt.Errorf("cluster: accept: %w", err)
		}

		rank, peerSize, err := readJoin(conn)
		if err != nil {
			conn.Close()
			closeAll(peers)
			return nil, err
		}
		if rank < 1 || rank >= size || peerSize != size {
			conn.Close()
			closeAll(peers)
			return nil, fmt.Errorf("cluster: bad join rank=%d size=%d (want size %d)", rank, peerSize, size)
		}
		if peers[rank] != nil {
			conn.Close()
			closeAll(peers)
			return nil, fmt.Errorf("cluster: duplicate rank %d", rank)
		}

		peers[rank] = conn
		joined++
		Log.WithFields(logrus.Fields{"rank": rank, "joined": joined, "size": size}).
			Debug("peer joined")
	}

	return &Context{rank: 0, size: size, peers: peers}, nil
}

// Dial joins the group as the given rank, retrying until rank 0 is
// listening or ctx is done.
func Dial(ctx context.Context, addr string, rank, size int) (*Context, error) {
	if rank < 1 || rank >= size {
		return nil, fmt.Errorf("cluster: rank %d out of range for size %d", rank, size)
	}

	d := net.Dialer{}
	var conn net.Conn
	for {
		var err error
		conn, err = d.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("cluster: dial %s: %w", addr, ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}

	if err := writeJoin(conn, rank, size); err != nil {
		conn.Close()
		return nil, err
	}

	return &Context{rank: rank, size: size, root: conn}, nil
}

func closeAll(conns []net.Conn) {
	for _, c := range conns {
		if c != nil {
			c.Close()
		}
	}
}
