package cluster

import "fmt"

// AllreduceMin reduces every rank's value to the group-wide minimum. All
// ranks receive the same result. Blocking collective.
func (c *Context) AllreduceMin(v int32) (int32, error) {
	return c.allreduce(v, func(a, b int32) int32 {
		if b < a {
			return b
		}
		return a
	})
}

// AllreduceMax reduces every rank's value to the group-wide maximum. All
// ranks receive the same result. Blocking collective.
func (c *Context) AllreduceMax(v int32) (int32, error) {
	return c.allreduce(v, func(a, b int32) int32 {
		if b > a {
			return b
		}
		return a
	})
}

func (c *Context) allreduce(v int32, op func(a, b int32) int32) (int32, error) {
	if err := c.Ready(); err != nil {
		return 0, err
	}

	if c.rank != 0 {
		if err := writeInt32(c.root, v); err != nil {
			return 0, err
		}
		return readInt32(c.root)
	}

	acc := v
	for r := 1; r < c.size; r++ {
		w, err := readInt32(c.peers[r])
		if err != nil {
			return 0, err
		}
		acc = op(acc, w)
	}
	for r := 1; r < c.size; r++ {
		if err := writeInt32(c.peers[r], acc); err != nil {
			return 0, err
		}
	}
	return acc, nil
}

// BroadcastInt32 replaces *v on every rank with root's value. Blocking
// collective.
func (c *Context) BroadcastInt32(v *int32, root int) error {
	if err := c.checkRoot(root); err != nil {
		return err
	}

	switch {
	case c.rank == 0 && root == 0:
		for r := 1; r < c.size; r++ {
			if err := writeInt32(c.peers[r], *v); err != nil {
				return err
			}
		}
	case c.rank == 0:
		// relay through the hub
		w, err := readInt32(c.peers[root])
		if err != nil {
			return err
		}
		*v = w
		for r := 1; r < c.size; r++ {
			if r == root {
				continue
			}
			if err := writeInt32(c.peers[r], *v); err != nil {
				return err
			}
		}
	case c.rank == root:
		return writeInt32(c.root, *v)
	default:
		w, err := readInt32(c.root)
		if err != nil {
			return err
		}
		*v = w
	}
	return nil
}

// BroadcastBytes fills b on every rank with root's copy. Every rank must
// pass a buffer of the same length (broadcast the length first). Blocking
// collective.
func (c *Context) BroadcastBytes(b []byte, root int) error {
	if err := c.checkRoot(root); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}

	switch {
	case c.rank == 0 && root == 0:
		for r := 1; r < c.size; r++ {
			if err := writeBytes(c.peers[r], b); err != nil {
				return err
			}
		}
	case c.rank == 0:
		if err := readBytes(c.peers[root], b); err != nil {
			return err
		}
		for r := 1; r < c.size; r++ {
			if r == root {
				continue
			}
			if err := writeBytes(c.peers[r], b); err != nil {
				return err
			}
		}
	case c.rank == root:
		return writeBytes(c.root, b)
	default:
		return readBytes(c.root, b)
	}
	return nil
}

func (c *Context) checkRoot(root int) error {
	if err := c.Ready(); err != nil {
		return err
	}
	if root < 0 || root >= c.size {
		return fmt.Errorf("cluster: broadcast root %d out of range for size %d", root, c.size)
	}
	return nil
}
