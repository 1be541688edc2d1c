package disk

import "testing"

func TestReadWriteRoundTrip(t *testing.T) {
	d := NewRAMDisk(16)
	out := make([]byte, SectorSize)
	for i := range out {
		out[i] = byte(i)
	}
	if err := d.WriteSector(3, out); err != nil {
		t.Fatalf("write: %v", err)
	}
	in := make([]byte, SectorSize)
	if err := d.ReadSector(3, in); err != nil {
		t.Fatalf("read: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("byte %d: got %x want %x", i, in[i], out[i])
		}
	}
}

func TestOutOfRangeSector(t *testing.T) {
	d := NewRAMDisk(4)
	buf := make([]byte, SectorSize)
	if err := d.ReadSector(4, buf); err == nil {
		t.Fatal("expected error reading out-of-range sector")
	}
	if err := d.WriteSector(-1, buf); err == nil {
		t.Fatal("expected error writing negative sector")
	}
}

func TestWrongBufferSize(t *testing.T) {
	d := NewRAMDisk(4)
	if err := d.ReadSector(0, make([]byte, 10)); err == nil {
		t.Fatal("expected error for short buffer")
	}
}
