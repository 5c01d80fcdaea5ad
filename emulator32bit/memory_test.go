package emulator32bit

import "testing"

func TestMemoryReadWriteRoundTrip(t *testing.T) {
	m := NewRAM("ram", 0, 16)
	if err := m.Write(4, 0xDEADBEEF, 4); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := m.Read(4, 4)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Fatalf("got 0x%x, want 0xDEADBEEF", got)
	}
}

func TestMemoryWriteIsBigEndianOnTheWire(t *testing.T) {
	m := NewRAM("ram", 0, 4)
	if err := m.Write(0, 0x11223344, 4); err != nil {
		t.Fatalf("write: %v", err)
	}
	snap := m.Snapshot()
	want := []byte{0x11, 0x22, 0x33, 0x44}
	for i := range want {
		if snap[i] != want[i] {
			t.Fatalf("byte %d = 0x%02x, want 0x%02x", i, snap[i], want[i])
		}
	}
}

func TestROMWriteRejected(t *testing.T) {
	rom := NewROM("rom", 0, []byte{0xAA, 0xBB, 0xCC, 0xDD})
	err := rom.Write(0, 0, 1)
	fault, ok := err.(*MemoryFault)
	if !ok || fault.Code != FaultAccessDenied {
		t.Fatalf("write: got %v, want ACCESS_DENIED", err)
	}
	got, err := rom.Read(0, 4)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != 0xAABBCCDD {
		t.Fatalf("got 0x%x, want 0xAABBCCDD", got)
	}
}

func TestMemoryOutOfBounds(t *testing.T) {
	m := NewRAM("ram", 0x1000, 4)
	if _, err := m.Read(0x1004, 1); err == nil {
		t.Fatalf("expected out-of-bounds fault")
	}
	if err := m.Write(0x2000, 1, 1); err == nil {
		t.Fatalf("expected out-of-bounds fault")
	}
}

func TestSystemBusRoutesToOwningRegion(t *testing.T) {
	bus := NewSystemBus()
	ram := NewRAM("ram", 0, 0x100)
	rom := NewROM("rom", 0x100, []byte{1, 2, 3, 4})
	if err := bus.MapRegion(ram); err != nil {
		t.Fatalf("map ram: %v", err)
	}
	if err := bus.MapRegion(rom); err != nil {
		t.Fatalf("map rom: %v", err)
	}

	if err := bus.Write(0, 42, 4); err != nil {
		t.Fatalf("write ram: %v", err)
	}
	v, err := bus.Read(0x100, 4)
	if err != nil {
		t.Fatalf("read rom: %v", err)
	}
	if v != 0x01020304 {
		t.Fatalf("got 0x%x, want 0x01020304", v)
	}

	if _, err := bus.Read(0x200, 1); err == nil {
		t.Fatalf("expected NO_REGION_AT_ADDRESS fault")
	}
}

func TestSystemBusRejectsOverlap(t *testing.T) {
	bus := NewSystemBus()
	if err := bus.MapRegion(NewRAM("a", 0, 0x100)); err != nil {
		t.Fatalf("map a: %v", err)
	}
	if err := bus.MapRegion(NewRAM("b", 0x80, 0x100)); err == nil {
		t.Fatalf("expected overlap error")
	}
}
