package flash

// ErasedByte is the value of every cell after erase.
const ErasedByte byte = 0xff

// MemDevice simulates NOR flash in memory.
type MemDevice struct {
	geo Geometry
	mem []byte
}

// NewMemDevice creates a device with all cells erased.
func NewMemDevice(geo Geometry) *MemDevice {
	d := &MemDevice{geo: geo, mem: make([]byte, geo.Size)}
	for i := range d.mem {
		d.mem[i] = ErasedByte
	}
	return d
}

// Geometry implements Device.
func (d *MemDevice) Geometry() Geometry {
	return d.geo
}

// EraseRegion implements Device.
func (d *MemDevice) EraseRegion(addr, size uint32) error {
	if err := checkRegion(d.geo, addr, size); err != nil {
		return err
	}
	eraseMem(d.mem, addr-d.geo.BaseOffset, size)
	return nil
}

// ProgramRegion implements Device.
func (d *MemDevice) ProgramRegion(addr uint32, data []byte) error {
	if !d.geo.Contains(addr, uint32(len(data))) {
		return ErrOutOfRange
	}
	programMem(d.mem, addr-d.geo.BaseOffset, data)
	return nil
}

// ReadMapped implements Device.
func (d *MemDevice) ReadMapped(addr, size uint32) ([]byte, error) {
	if !d.geo.Contains(addr, size) {
		return nil, ErrOutOfRange
	}
	out := make([]byte, size)
	copy(out, d.mem[addr-d.geo.BaseOffset:])
	return out, nil
}

func checkRegion(geo Geometry, addr, size uint32) error {
	if !geo.Contains(addr, size) {
		return ErrOutOfRange
	}
	if !geo.SectorAligned(addr) || size%geo.SectorSize != 0 {
		return ErrUnalignedRegion
	}
	return nil
}

func eraseMem(mem []byte, off, size uint32) {
	for i := off; i < off+size; i++ {
		mem[i] = ErasedByte
	}
}

// programMem keeps NOR semantics: cells only lose bits until the next
// erase.
func programMem(mem []byte, off uint32, data []byte) {
	for i, b := range data {
		mem[off+uint32(i)] &= b
	}
}
