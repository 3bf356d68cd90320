// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

/*
UDP Packet Structure (BigEndian)

|<-- 4 Bytes -->|<---- 8 Bytes ---->|<- 2 Bytes ->|<-- 4 Bytes -->|<-- 4 Bytes -->|
+---------------+-------------------+-------------+---------------+---------------+
|   Sequence    |     Timestamp     |  Peak Bin   |   Frequency   |     Power     |
|   (uint32)    | (int64, ns epoch) |  (uint16)   |  (float32 Hz) |   (float32)   |
+---------------+-------------------+-------------+---------------+---------------+
*/

// PacketSize is the encoded length of a Packet.
const PacketSize = 4 + 8 + 2 + 4 + 4

// Packet is one published estimate.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Bin       uint16
	Frequency float32
	Power     float32
}

// Encode writes p to w in wire order.
func (p Packet) Encode(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, p)
}

// DecodePacket parses one datagram.
func DecodePacket(data []byte) (Packet, error) {
	var p Packet
	if len(data) != PacketSize {
		return p, fmt.Errorf("invalid packet length %d, want %d", len(data), PacketSize)
	}
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &p); err != nil {
		return p, fmt.Errorf("failed to decode packet: %w", err)
	}
	return p, nil
}
