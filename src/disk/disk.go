// Package disk models the swap block device the VM subsystem consumes but
// doesn't own: a fixed-size array of 512-byte sectors. Grounded on the
// Disk_i shape (Start/Stats) biscuit's fs/blk.go exposes to the block
// cache, narrowed to the sector read/write the swap layer actually needs --
// this package has no block cache or journal above it, so it skips the
// request-queue machinery fs/blk.go builds for those.
package disk

import "fmt"

// SectorSize is the device's fixed sector size in bytes.
const SectorSize = 512

// Device is the swap block device collaborator: a fixed-size array of
// SectorSize-byte sectors addressed by sector number.
type Device interface {
	// Size returns the device's sector count.
	Size() int
	// ReadSector reads one sector into buf, which must be SectorSize bytes.
	ReadSector(sector int, buf []byte) error
	// WriteSector writes one sector from buf, which must be SectorSize bytes.
	WriteSector(sector int, buf []byte) error
}

// RAMDisk is an in-memory Device, standing in for the real swap partition
// the way a test harness stands in for `disk_get(channel, dev)`.
type RAMDisk struct {
	sectors [][SectorSize]byte
}

// NewRAMDisk creates a device with the given sector count.
func NewRAMDisk(nsectors int) *RAMDisk {
	return &RAMDisk{sectors: make([][SectorSize]byte, nsectors)}
}

func (d *RAMDisk) Size() int {
	return len(d.sectors)
}

func (d *RAMDisk) ReadSector(sector int, buf []byte) error {
	if err := d.bounds(sector, buf); err != nil {
		return err
	}
	copy(buf, d.sectors[sector][:])
	return nil
}

func (d *RAMDisk) WriteSector(sector int, buf []byte) error {
	if err := d.bounds(sector, buf); err != nil {
		return err
	}
	copy(d.sectors[sector][:], buf)
	return nil
}

func (d *RAMDisk) bounds(sector int, buf []byte) error {
	if sector < 0 || sector >= len(d.sectors) {
		return fmt.Errorf("disk: sector %d out of range [0, %d)", sector, len(d.sectors))
	}
	if len(buf) != SectorSize {
		return fmt.Errorf("disk: buffer length %d != sector size %d", len(buf), SectorSize)
	}
	return nil
}
