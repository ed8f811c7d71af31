package flash

import (
	"fmt"
	"io/ioutil"

	yaml "gopkg.in/yaml.v3"
)

// Profile is a named device geometry, usually loaded from a YAML file:
//
//   name: rp2040
//   base_offset: 0x40000
//   size: 0x1c0000
//   sector_size: 0x1000
type Profile struct {
	Name       string `yaml:"name"`
	BaseOffset uint32 `yaml:"base_offset"`
	Size       uint32 `yaml:"size"`
	SectorSize uint32 `yaml:"sector_size"`
}

// DefaultProfile matches the RP2040 reference target: 2MiB on-board
// flash with the first 256KiB reserved for firmware.
var DefaultProfile = Profile{
	Name:       "rp2040",
	BaseOffset: 256 * 1024,
	Size:       2*1024*1024 - 256*1024,
	SectorSize: 4096,
}

// LoadProfile reads a profile from a YAML file.
func LoadProfile(path string) (*Profile, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseProfile(data)
}

// ParseProfile parses and validates YAML profile content.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the profile describes a usable device.
func (p *Profile) Validate() error {
	if p.SectorSize == 0 || p.SectorSize&(p.SectorSize-1) != 0 {
		return fmt.Errorf("sector_size must be a power of two, got %d", p.SectorSize)
	}
	if p.Size == 0 || p.Size%p.SectorSize != 0 {
		return fmt.Errorf("size %d is not a multiple of sector_size %d", p.Size, p.SectorSize)
	}
	if p.BaseOffset%p.SectorSize != 0 {
		return fmt.Errorf("base_offset %d is not sector aligned", p.BaseOffset)
	}
	return nil
}

// Geometry converts the profile to a device geometry.
func (p *Profile) Geometry() Geometry {
	return Geometry{
		BaseOffset: p.BaseOffset,
		Size:       p.Size,
		SectorSize: p.SectorSize,
	}
}
