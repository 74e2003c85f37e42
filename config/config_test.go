package config

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestLoadValidConfig(t *testing.T) {
	c := qt.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "threshold: 3\nmax_votes: 1000000\ntable_size: 1024\n"
	c.Assert(os.WriteFile(path, []byte(contents), 0o600), qt.IsNil)

	cfg, err := Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Threshold, qt.Equals, 3)
	c.Assert(cfg.MaxVotes, qt.Equals, uint64(1000000))
	c.Assert(cfg.TableSize, qt.Equals, 1024)
}

func TestValidateRejectsBadValues(t *testing.T) {
	c := qt.New(t)

	cases := []Config{
		{Threshold: 0, MaxVotes: 10, TableSize: 10},
		{Threshold: 1, MaxVotes: 0, TableSize: 10},
		{Threshold: 1, MaxVotes: 10, TableSize: 0},
	}
	for _, cfg := range cases {
		c.Assert(cfg.Validate(), qt.Not(qt.IsNil))
	}
}
