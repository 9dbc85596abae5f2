/*
Package ncom decodes OxTS NCOM navigation status packets.

PACKET STRUCTURE (71 bytes, little-endian):
├── Sync (0xE7) + Time
├── Batch A - accelerations and angular rates (24-bit signed)
├── NavStat + Checksum_1
├── Batch B - position (IEEE-754 doubles, radians), altitude, velocities,
│   heading (24-bit signed), pitch and roll (24-bit unsigned)
└── Checksum_2 + Status_channel + 8 opaque status bytes

DECODING:
1. Length check (exactly PacketSize bytes)
2. Field extraction driven by the Layout table
3. Sync byte validation
4. Scaling of raw integers to physical units
5. NavStat code lookup

Checksums are extracted but not verified. Framing a byte stream into packets
is left to the caller (see internal/ingest).
*/
package ncom
