package flash

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageDevice(t *testing.T) {
	dir, err := ioutil.TempDir("", "flash-image")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "flash.img")
	geo := testGeo()

	dev, err := OpenImage(path, geo)
	require.NoError(t, err)

	// fresh images come up erased
	out, err := dev.ReadMapped(0x1000, 0x1000)
	require.NoError(t, err)
	require.Equal(t, bytes.Repeat([]byte{0xff}, 0x1000), out)

	require.NoError(t, dev.ProgramRegion(0x2000, []byte("persisted")))
	require.NoError(t, dev.Close())

	// contents survive a reopen
	dev, err = OpenImage(path, geo)
	require.NoError(t, err)
	defer dev.Close()
	out, err = dev.ReadMapped(0x2000, 9)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), out)

	require.Equal(t, ErrOutOfRange, dev.ProgramRegion(0x5000, []byte{1}))
}

func TestImageDeviceSizeMismatch(t *testing.T) {
	dir, err := ioutil.TempDir("", "flash-image")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "flash.img")

	require.NoError(t, ioutil.WriteFile(path, []byte("short image"), 0644))
	_, err = OpenImage(path, testGeo())
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not match device size")

	// the mismatched image is left untouched
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("short image"), data)
}
