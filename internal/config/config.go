// Package config loads Program construction options (§6 "Program-level
// API"): the insecure-protocol policy, the verification-queue drain limit,
// and the URI root, layering CLI flags over a YAML file over built-in
// defaults with koanf.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the tunables a host passes to a new Program.
type Config struct {
	// InsecureProtocolPolicy names how an http(s) document referencing a
	// file:// URI is treated ("warn", the default). The reference resolver
	// does not read this field: such a reference always raises
	// InsecureResourceReference, whatever the value.
	InsecureProtocolPolicy string `koanf:"insecure_protocol_policy"`

	// VerificationDrainLimit bounds how many phrase-verification entries
	// a single ForceVerificationDrain call processes (§6).
	VerificationDrainLimit int `koanf:"verification_drain_limit"`

	// URIRoot is the filesystem root the default file:// UriReader
	// resolves relative paths against.
	URIRoot string `koanf:"uri_root"`
}

// Default returns the built-in configuration used when no file or flags
// override it.
func Default() Config {
	return Config{
		InsecureProtocolPolicy: "warn",
		VerificationDrainLimit: 10000,
		URIRoot:                ".",
	}
}

// Load layers, in increasing precedence: built-in defaults, an optional
// YAML file at path (skipped if empty or missing), and any bound pflag
// flags (skipped if flags is nil).
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, err
			}
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, err
		}
	}

	out := Default()
	if err := k.Unmarshal("", &out); err != nil {
		return Config{}, err
	}
	return out, nil
}
