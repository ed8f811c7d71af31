package store

import (
	"github.com/golang/glog"

	"github.com/robotalks/flash.go/pkg/flash"
)

// Store is the sector record store over a raw flash device.
type Store struct {
	dev   flash.Device
	guard flash.CriticalSectioner
	geo   flash.Geometry
}

// Option customizes a Store.
type Option func(*Store)

// WithCriticalSection overrides the guard scoping erase+program pairs.
func WithCriticalSection(cs flash.CriticalSectioner) Option {
	return func(s *Store) { s.guard = cs }
}

// New creates a Store owning the device's managed region.
func New(dev flash.Device, opts ...Option) *Store {
	s := &Store{
		dev:   dev,
		guard: flash.NopCriticalSection{},
		geo:   dev.Geometry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity is the payload capacity of one sector.
func (s *Store) Capacity() uint32 {
	return s.geo.SectorSize - HeaderSize
}

// Sectors is the number of sectors managed by the store.
func (s *Store) Sectors() uint32 {
	return s.geo.Sectors()
}

// SectorSize is the size of one sector.
func (s *Store) SectorSize() uint32 {
	return s.geo.SectorSize
}

// Write stores payload as the record of the sector at offset,
// replacing whatever the sector held. The stored write count becomes
// one more than the prior count, starting at 1 for a fresh sector.
func (s *Store) Write(offset uint32, payload []byte) error {
	addr, err := s.sectorAddr(offset)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return ErrEmptyPayload
	}
	if len(payload) > int(s.Capacity()) {
		return ErrOversizedPayload
	}
	meta, err := s.readMeta(addr)
	if err != nil {
		return err
	}
	count := meta.priorCount() + 1
	rec := encodeRecord(Meta{
		Valid:      true,
		WriteCount: count,
		Length:     uint64(len(payload)),
	}, payload)

	// The erase+program pair must not be preempted: a sector left
	// erased without its program is indistinguishable from one never
	// written.
	restore := s.guard.Enter()
	defer restore()
	if err = s.dev.EraseRegion(addr, s.geo.SectorSize); err != nil {
		return err
	}
	if err = s.dev.ProgramRegion(addr, rec); err != nil {
		return err
	}
	glog.V(2).Infof("wrote %d bytes at %#x, count %d", len(payload), offset, count)
	return nil
}

// Read returns up to maxLen bytes of the record stored at offset. It
// fails with ErrInvalidData when the sector holds no valid record.
func (s *Store) Read(offset uint32, maxLen int) ([]byte, error) {
	addr, err := s.sectorAddr(offset)
	if err != nil {
		return nil, err
	}
	meta, err := s.readMeta(addr)
	if err != nil {
		return nil, err
	}
	if !meta.Valid || meta.Length == 0 || meta.Length > uint64(s.Capacity()) {
		return nil, ErrInvalidData
	}
	n := meta.Length
	if maxLen < 0 {
		maxLen = 0
	}
	if uint64(maxLen) < n {
		n = uint64(maxLen)
	}
	return s.dev.ReadMapped(addr+HeaderSize, uint32(n))
}

// Erase discards the record at offset, keeping its write count: the
// sector is erased and re-programmed with an invalid zero-length
// header so wear stays accounted for.
func (s *Store) Erase(offset uint32) error {
	addr, err := s.sectorAddr(offset)
	if err != nil {
		return err
	}
	meta, err := s.readMeta(addr)
	if err != nil {
		return err
	}
	hdr, _ := Meta{WriteCount: meta.priorCount()}.MarshalBinary()

	restore := s.guard.Enter()
	defer restore()
	if err = s.dev.EraseRegion(addr, s.geo.SectorSize); err != nil {
		return err
	}
	if err = s.dev.ProgramRegion(addr, hdr); err != nil {
		return err
	}
	glog.V(2).Infof("erased sector at %#x, count %d kept", offset, meta.priorCount())
	return nil
}

// Stat returns the decoded record header of the sector at offset. A
// sector never programmed since erase reports a zero count and no
// validity.
func (s *Store) Stat(offset uint32) (Meta, error) {
	addr, err := s.sectorAddr(offset)
	if err != nil {
		return Meta{}, err
	}
	meta, err := s.readMeta(addr)
	if err != nil {
		return Meta{}, err
	}
	if meta.WriteCount == erasedCount {
		return Meta{}, nil
	}
	return meta, nil
}

// WriteCountOf reports how many times the sector at offset has been
// written since the image was created.
func (s *Store) WriteCountOf(offset uint32) (uint32, error) {
	meta, err := s.Stat(offset)
	if err != nil {
		return 0, err
	}
	return meta.WriteCount, nil
}

// LengthOf reports the stored payload length of the sector at offset;
// zero for erased or never-written sectors.
func (s *Store) LengthOf(offset uint32) (uint64, error) {
	meta, err := s.Stat(offset)
	if err != nil {
		return 0, err
	}
	if !meta.Valid {
		return 0, nil
	}
	return meta.Length, nil
}

// sectorAddr validates a caller offset and translates it to a device
// address. Offsets are relative to the managed region's base.
func (s *Store) sectorAddr(offset uint32) (uint32, error) {
	if !s.geo.SectorAligned(offset) {
		return 0, ErrUnaligned
	}
	if uint64(offset)+uint64(s.geo.SectorSize) > uint64(s.geo.Size) {
		return 0, ErrOutOfBounds
	}
	return s.geo.BaseOffset + offset, nil
}

func (s *Store) readMeta(addr uint32) (Meta, error) {
	b, err := s.dev.ReadMapped(addr, HeaderSize)
	if err != nil {
		return Meta{}, err
	}
	var m Meta
	if err = m.UnmarshalBinary(b); err != nil {
		return Meta{}, err
	}
	return m, nil
}
