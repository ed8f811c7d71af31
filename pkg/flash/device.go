package flash

import "errors"

var (
	// ErrOutOfRange indicates an access outside the managed region.
	ErrOutOfRange = errors.New("address out of device range")
	// ErrUnalignedRegion indicates an erase not aligned to sector
	// boundaries.
	ErrUnalignedRegion = errors.New("region not sector aligned")
)

// Geometry describes the addressable layout of a flash device.
type Geometry struct {
	// BaseOffset is the absolute address where the managed region
	// starts on the physical device.
	BaseOffset uint32
	// Size is the size of the managed region in bytes.
	Size uint32
	// SectorSize is the minimum erasable unit.
	SectorSize uint32
}

// Contains reports whether [addr, addr+size) is inside the managed region.
func (g Geometry) Contains(addr, size uint32) bool {
	if addr < g.BaseOffset {
		return false
	}
	end := uint64(addr) + uint64(size)
	return end <= uint64(g.BaseOffset)+uint64(g.Size)
}

// SectorAligned reports whether addr sits on a sector boundary.
func (g Geometry) SectorAligned(addr uint32) bool {
	return addr%g.SectorSize == 0
}

// Sectors is the number of whole sectors in the managed region.
func (g Geometry) Sectors() uint32 {
	return g.Size / g.SectorSize
}

// Device is the raw flash hardware contract.
type Device interface {
	// Geometry retrieves the device layout.
	Geometry() Geometry
	// EraseRegion erases whole sectors: addr and size must be
	// multiples of the sector size.
	EraseRegion(addr, size uint32) error
	// ProgramRegion programs data starting at addr. Only erased
	// cells take new values: programming clears bits, never sets.
	ProgramRegion(addr uint32, data []byte) error
	// ReadMapped reads size bytes at addr, the equivalent of a
	// memory-mapped read on real hardware.
	ReadMapped(addr, size uint32) ([]byte, error)
}

// CriticalSectioner scopes operations which must not be preempted,
// standing in for save_and_disable_interrupts on the chip. Enter
// returns the func restoring the previous state.
type CriticalSectioner interface {
	Enter() func()
}

// NopCriticalSection is for hosted devices where preemption is not a
// concern.
type NopCriticalSection struct{}

// Enter implements CriticalSectioner.
func (NopCriticalSection) Enter() func() {
	return func() {}
}
