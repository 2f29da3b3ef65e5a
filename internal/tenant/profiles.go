package tenant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile names a tenant connection in profiles.yaml. Profiles carry the
// endpoint and say which env variables hold the account and token; they
// never carry secrets themselves.
type Profile struct {
	Endpoint   string `yaml:"endpoint"`
	AccountEnv string `yaml:"account_env"`
	TokenEnv   string `yaml:"token_env"`
}

// profilesFile is the on-disk shape of profiles.yaml.
type profilesFile struct {
	Profiles map[string]*Profile `yaml:"profiles"`
}

// LoadProfile reads profiles.yaml at path and returns the named profile.
func LoadProfile(path, name string) (*Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file: %w", err)
	}

	var file profilesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles file %s: %w", path, err)
	}

	profile, ok := file.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found in %s", name, path)
	}
	return profile, nil
}
