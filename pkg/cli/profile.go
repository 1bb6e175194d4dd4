package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/tally/pkg/render"
)

// Profile is the business profile file read by the render commands
type Profile struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
	Logo    string `yaml:"logo"`

	dir string
}

// LoadProfile reads a YAML business profile, expanding ${VAR} references
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}

	p.Name = expandEnv(p.Name)
	p.Address = expandEnv(p.Address)
	p.Phone = expandEnv(p.Phone)
	p.Logo = expandEnv(p.Logo)
	p.dir = filepath.Dir(path)

	return &p, nil
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}
	return os.ExpandEnv(s)
}

// BusinessProfile resolves the profile for rendering. A relative logo path
// is taken relative to the profile file.
func (p *Profile) BusinessProfile() (render.BusinessProfile, error) {
	bp := render.BusinessProfile{
		Name:    p.Name,
		Address: p.Address,
		Phone:   p.Phone,
	}
	if p.Logo == "" {
		return bp, nil
	}

	logoPath := p.Logo
	if !filepath.IsAbs(logoPath) {
		logoPath = filepath.Join(p.dir, logoPath)
	}
	logo, err := os.ReadFile(logoPath)
	if err != nil {
		return bp, fmt.Errorf("failed to read logo: %w", err)
	}
	bp.Logo = logo
	return bp, nil
}
