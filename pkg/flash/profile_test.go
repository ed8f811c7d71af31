package flash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(`
name: rp2040
base_offset: 0x40000
size: 0x1c0000
sector_size: 0x1000
`))
	require.NoError(t, err)
	require.Equal(t, &DefaultProfile, p)
	require.Equal(t, Geometry{
		BaseOffset: 256 * 1024,
		Size:       2*1024*1024 - 256*1024,
		SectorSize: 4096,
	}, p.Geometry())
}

func TestParseProfileInvalid(t *testing.T) {
	testCases := []struct {
		name string
		in   string
	}{
		{"bad yaml", `: not yaml`},
		{"zero sector", `{name: x, size: 4096, sector_size: 0}`},
		{"sector not power of two", `{name: x, size: 4096, sector_size: 3000}`},
		{"size not sector multiple", `{name: x, size: 5000, sector_size: 4096}`},
		{"unaligned base", `{name: x, base_offset: 100, size: 4096, sector_size: 4096}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tc.in))
			require.Error(t, err)
		})
	}
}

func TestDefaultProfileValid(t *testing.T) {
	require.NoError(t, DefaultProfile.Validate())
}
