package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/flash.go/pkg/flash"
)

const testSectorSize = 4096

func testGeometry() flash.Geometry {
	return flash.Geometry{
		BaseOffset: 256 * 1024,
		Size:       64 * 1024,
		SectorSize: testSectorSize,
	}
}

func testStore() *Store {
	return New(flash.NewMemDevice(testGeometry()))
}

func pattern(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func TestStoreGeometry(t *testing.T) {
	s := testStore()
	require.Equal(t, uint32(testSectorSize), s.SectorSize())
	require.Equal(t, uint32(16), s.Sectors())
	require.Equal(t, uint32(testSectorSize-HeaderSize), s.Capacity())
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := testStore()
	for _, offset := range []uint32{0, testSectorSize, 15 * testSectorSize} {
		payload := pattern(0x5a, 100)
		require.NoError(t, s.Write(offset, payload))

		out, err := s.Read(offset, len(payload))
		require.NoError(t, err)
		require.Equal(t, payload, out)

		// a larger limit returns only the stored bytes
		out, err = s.Read(offset, testSectorSize)
		require.NoError(t, err)
		require.Equal(t, payload, out)

		// a smaller limit truncates
		out, err = s.Read(offset, 10)
		require.NoError(t, err)
		require.Equal(t, payload[:10], out)
	}
}

func TestWriteCountLifecycle(t *testing.T) {
	s := testStore()

	count, err := s.WriteCountOf(0)
	require.NoError(t, err)
	require.Equal(t, uint32(0), count)

	require.NoError(t, s.Write(0, pattern(0xab, 100)))
	count, err = s.WriteCountOf(0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	require.NoError(t, s.Write(0, pattern(0xcd, 50)))
	count, err = s.WriteCountOf(0)
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)

	// erase keeps the count
	require.NoError(t, s.Erase(0))
	count, err = s.WriteCountOf(0)
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)

	require.NoError(t, s.Write(0, pattern(0xef, 10)))
	count, err = s.WriteCountOf(0)
	require.NoError(t, err)
	require.Equal(t, uint32(3), count)

	// counts are per sector
	count, err = s.WriteCountOf(testSectorSize)
	require.NoError(t, err)
	require.Equal(t, uint32(0), count)
}

func TestReadInvalidData(t *testing.T) {
	s := testStore()

	_, err := s.Read(0, 100)
	require.Equal(t, ErrInvalidData, err)

	require.NoError(t, s.Write(0, pattern(0xab, 100)))
	require.NoError(t, s.Erase(0))
	for _, maxLen := range []int{0, 1, 100, testSectorSize} {
		_, err = s.Read(0, maxLen)
		require.Equal(t, ErrInvalidData, err)
	}
}

func TestWriteValidation(t *testing.T) {
	s := testStore()
	intact := pattern(0xab, 100)
	require.NoError(t, s.Write(0, intact))

	testCases := []struct {
		name    string
		offset  uint32
		payload []byte
		err     error
	}{
		{"unaligned", 1, pattern(1, 10), ErrUnaligned},
		{"unaligned into sector 0", HeaderSize, pattern(1, 10), ErrUnaligned},
		{"out of bounds", 64 * 1024, pattern(1, 10), ErrOutOfBounds},
		{"far out of bounds", 0xfffff000, pattern(1, 10), ErrOutOfBounds},
		{"empty", 0, nil, ErrEmptyPayload},
		{"oversized", 0, pattern(1, testSectorSize-HeaderSize+1), ErrOversizedPayload},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.err, s.Write(tc.offset, tc.payload))

			// failed writes leave stored data unchanged
			out, err := s.Read(0, len(intact))
			require.NoError(t, err)
			require.Equal(t, intact, out)
			count, err := s.WriteCountOf(0)
			require.NoError(t, err)
			require.Equal(t, uint32(1), count)
		})
	}
}

func TestPayloadBoundary(t *testing.T) {
	s := testStore()
	max := int(s.Capacity())

	require.NoError(t, s.Write(0, pattern(0x77, max)))
	out, err := s.Read(0, max)
	require.NoError(t, err)
	require.Len(t, out, max)

	require.Equal(t, ErrOversizedPayload, s.Write(0, pattern(0x77, max+1)))
}

func TestEraseValidation(t *testing.T) {
	s := testStore()
	require.Equal(t, ErrUnaligned, s.Erase(3))
	require.Equal(t, ErrOutOfBounds, s.Erase(64*1024))
}

func TestAccessors(t *testing.T) {
	s := testStore()

	_, err := s.WriteCountOf(1)
	require.Equal(t, ErrUnaligned, err)
	_, err = s.LengthOf(64 * 1024)
	require.Equal(t, ErrOutOfBounds, err)
	_, err = s.Stat(5)
	require.Equal(t, ErrUnaligned, err)

	length, err := s.LengthOf(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), length)

	require.NoError(t, s.Write(0, pattern(0xab, 321)))
	length, err = s.LengthOf(0)
	require.NoError(t, err)
	require.Equal(t, uint64(321), length)

	meta, err := s.Stat(0)
	require.NoError(t, err)
	require.Equal(t, Meta{Valid: true, WriteCount: 1, Length: 321}, meta)

	// erased records keep the count but report no length
	require.NoError(t, s.Erase(0))
	meta, err = s.Stat(0)
	require.NoError(t, err)
	require.Equal(t, Meta{Valid: false, WriteCount: 1, Length: 0}, meta)
	length, err = s.LengthOf(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), length)
}

func TestRewriteScenario(t *testing.T) {
	s := testStore()

	require.NoError(t, s.Write(0, pattern(0xab, 100)))
	count, err := s.WriteCountOf(0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	require.NoError(t, s.Erase(0))
	count, err = s.WriteCountOf(0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)
	_, err = s.Read(0, 100)
	require.Equal(t, ErrInvalidData, err)

	require.NoError(t, s.Write(0, pattern(0xab, 100)))
	count, err = s.WriteCountOf(0)
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)
}

type fakeGuard struct {
	enters   int
	restores int
}

func (g *fakeGuard) Enter() func() {
	g.enters++
	return func() { g.restores++ }
}

func TestCriticalSectionScope(t *testing.T) {
	guard := &fakeGuard{}
	s := New(flash.NewMemDevice(testGeometry()), WithCriticalSection(guard))

	// validation failures never touch the guard or the hardware
	require.Error(t, s.Write(0, nil))
	require.Error(t, s.Write(3, pattern(1, 10)))
	require.Equal(t, 0, guard.enters)

	require.NoError(t, s.Write(0, pattern(1, 10)))
	require.Equal(t, 1, guard.enters)
	require.Equal(t, 1, guard.restores)

	require.NoError(t, s.Erase(0))
	require.Equal(t, 2, guard.enters)
	require.Equal(t, 2, guard.restores)

	// reads don't need the guard
	_, err := s.Read(0, 10)
	require.Equal(t, ErrInvalidData, err)
	require.Equal(t, 2, guard.enters)
}
