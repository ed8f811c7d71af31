package flash

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ImageDevice is a flash image file mapped into memory. It keeps the
// same NOR program semantics as MemDevice, so an image written on the
// host behaves like the sectors it stands in for.
type ImageDevice struct {
	geo  Geometry
	file *os.File
	mmap []byte
}

// OpenImage opens or creates an image file sized to the geometry and
// maps it. A freshly created image comes up fully erased.
func OpenImage(path string, geo Geometry) (*ImageDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	fresh := fi.Size() == 0
	if fresh {
		if err = f.Truncate(int64(geo.Size)); err != nil {
			f.Close()
			return nil, err
		}
	} else if fi.Size() != int64(geo.Size) {
		// truncating an existing image to another geometry would
		// silently discard sectors
		f.Close()
		return nil, fmt.Errorf("image size %d does not match device size %d", fi.Size(), geo.Size)
	}
	mmap, err := unix.Mmap(int(f.Fd()), 0, int(geo.Size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	d := &ImageDevice{geo: geo, file: f, mmap: mmap}
	if fresh {
		eraseMem(d.mmap, 0, geo.Size)
	}
	return d, nil
}

// Geometry implements Device.
func (d *ImageDevice) Geometry() Geometry {
	return d.geo
}

// EraseRegion implements Device.
func (d *ImageDevice) EraseRegion(addr, size uint32) error {
	if err := checkRegion(d.geo, addr, size); err != nil {
		return err
	}
	eraseMem(d.mmap, addr-d.geo.BaseOffset, size)
	return nil
}

// ProgramRegion implements Device.
func (d *ImageDevice) ProgramRegion(addr uint32, data []byte) error {
	if !d.geo.Contains(addr, uint32(len(data))) {
		return ErrOutOfRange
	}
	programMem(d.mmap, addr-d.geo.BaseOffset, data)
	return nil
}

// ReadMapped implements Device.
func (d *ImageDevice) ReadMapped(addr, size uint32) ([]byte, error) {
	if !d.geo.Contains(addr, size) {
		return nil, ErrOutOfRange
	}
	out := make([]byte, size)
	copy(out, d.mmap[addr-d.geo.BaseOffset:])
	return out, nil
}

// Sync flushes the mapping to the backing file.
func (d *ImageDevice) Sync() error {
	return unix.Msync(d.mmap, unix.MS_SYNC)
}

// Close syncs, unmaps and closes the image file.
func (d *ImageDevice) Close() error {
	err := d.Sync()
	if e := unix.Munmap(d.mmap); err == nil {
		err = e
	}
	d.mmap = nil
	if e := d.file.Close(); err == nil {
		err = e
	}
	return err
}
