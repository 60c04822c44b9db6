package cluster

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// The wire format is deliberately rigid: fixed-width big-endian int32s and
// raw byte runs in a fixed order, nothing self-describing. Both ends of
// every collective know exactly what comes next.

func writeInt32(conn net.Conn, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	if _, err := conn.Write(buf[:]); err != nil {
		return fmt.Errorf("cluster: write: %w", err)
	}
	return nil
}

func readInt32(conn net.Conn) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return 0, fmt.Errorf("cluster: read: %w", err)
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

func writeBytes(conn net.Conn, b []byte) error {
	if _, err := conn.Write(b); err != nil {
		return fmt.Errorf("cluster: write: %w", err)
	}
	return nil
}

func readBytes(conn net.Conn, b []byte) error {
	if _, err := io.ReadFull(conn, b); err != nil {
		return fmt.Errorf("cluster: read: %w", err)
	}
	return nil
}

func writeJoin(conn net.Conn, rank, size int) error {
	var buf [12]byte
	binary.BigEndian.PutUint32(buf[0:4], handshakeMagic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(rank))
	binary.BigEndian.PutUint32(buf[8:12], uint32(size))
	if _, err := conn.Write(buf[:]); err != nil {
		return fmt.Errorf("cluster: join: %w", err)
	}
	return nil
}

func readJoin(conn net.Conn) (rank, size int, err error) {
	var buf [12]byte
	if _, err := io.ReadFull(conn, buf[:]); err != nil {
		return 0, 0, fmt.Errorf("cluster: join: %w", err)
	}
	if magic := binary.BigEndian.Uint32(buf[0:4]); magic != handshakeMagic {
		return 0, 0, fmt.Errorf("cluster: join: bad magic %#x", magic)
	}
	rank = int(int32(binary.BigEndian.Uint32(buf[4:8])))
	size = int(int32(binary.BigEndian.Uint32(buf[8:12])))
	return rank, size, nil
}
