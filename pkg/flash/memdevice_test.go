package flash

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func testGeo() Geometry {
	return Geometry{BaseOffset: 0x1000, Size: 0x4000, SectorSize: 0x1000}
}

func TestGeometry(t *testing.T) {
	geo := testGeo()
	require.True(t, geo.Contains(0x1000, 0x1000))
	require.True(t, geo.Contains(0x4000, 0x1000))
	require.False(t, geo.Contains(0x0, 0x1000))
	require.False(t, geo.Contains(0x5000, 1))
	require.False(t, geo.Contains(0x4fff, 2))
	require.True(t, geo.SectorAligned(0x2000))
	require.False(t, geo.SectorAligned(0x2001))
	require.Equal(t, uint32(4), geo.Sectors())
}

func TestMemDeviceErased(t *testing.T) {
	dev := NewMemDevice(testGeo())
	out, err := dev.ReadMapped(0x1000, 0x1000)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{0xff}, 0x1000), out)
}

func TestMemDeviceProgramClearsBitsOnly(t *testing.T) {
	dev := NewMemDevice(testGeo())
	require.NoError(t, dev.ProgramRegion(0x1000, []byte{0x0f}))
	require.NoError(t, dev.ProgramRegion(0x1000, []byte{0xf1}))
	out, err := dev.ReadMapped(0x1000, 1)
	require.NoError(t, err)
	// without an erase in between, the second program cannot set bits
	require.Equal(t, []byte{0x01}, out)

	require.NoError(t, dev.EraseRegion(0x1000, 0x1000))
	require.NoError(t, dev.ProgramRegion(0x1000, []byte{0xf1}))
	out, err = dev.ReadMapped(0x1000, 1)
	require.NoError(t, err)
	require.Equal(t, []byte{0xf1}, out)
}

func TestMemDeviceBounds(t *testing.T) {
	dev := NewMemDevice(testGeo())
	require.Equal(t, ErrOutOfRange, dev.EraseRegion(0x5000, 0x1000))
	require.Equal(t, ErrOutOfRange, dev.ProgramRegion(0x4fff, []byte{1, 2}))
	_, err := dev.ReadMapped(0, 1)
	require.Equal(t, ErrOutOfRange, err)

	require.Equal(t, ErrUnalignedRegion, dev.EraseRegion(0x1001, 0x1000))
	require.Equal(t, ErrUnalignedRegion, dev.EraseRegion(0x1000, 0x800))
}
