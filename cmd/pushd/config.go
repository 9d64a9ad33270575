// Copyright 2020 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	"fmt"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"mellium.im/pushd/server"
)

// config is the on-disk configuration of pushd.
// Flags that are set explicitly take precedence over the file.
type config struct {
	// Addr is the address that XMPP clients connect to.
	Addr string `yaml:"addr"`

	// ControlAddr is the address of the HTTP control interface.
	// If it is empty the control interface is disabled.
	ControlAddr string `yaml:"control_addr"`

	// RequireAuth is false to refuse SASL and never let clients subscribe.
	RequireAuth bool `yaml:"require_auth"`

	// Lang is the default xml:lang of stream headers as a BCP 47 tag.
	Lang string `yaml:"lang"`

	// PrepareJIDs applies the RFC 7622 preparation rules to bound addresses.
	PrepareJIDs bool `yaml:"prepare_jids"`

	// MaxStanzaSize limits the bytes buffered for one incoming element.
	// Zero uses the library default.
	MaxStanzaSize int `yaml:"max_stanza_size"`

	TLS struct {
		Cert string `yaml:"cert"`
		Key  string `yaml:"key"`
	} `yaml:"tls"`
}

func defaultConfig() config {
	return config{
		Addr:        ":5222",
		ControlAddr: "localhost:8080",
		RequireAuth: true,
	}
}

// loadConfig reads the YAML file at path on top of the default config.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return cfg, nil
}

// options converts the config into server options.
func (c config) options() ([]server.Option, error) {
	opts := []server.Option{
		server.ClientAddr(c.Addr),
		server.RequireAuth(c.RequireAuth),
		server.PrepareJIDs(c.PrepareJIDs),
	}
	if c.MaxStanzaSize < 0 {
		return nil, fmt.Errorf("invalid max_stanza_size %d", c.MaxStanzaSize)
	}
	if c.MaxStanzaSize > 0 {
		opts = append(opts, server.MaxStanzaSize(c.MaxStanzaSize))
	}
	if c.Lang != "" {
		tag, err := language.Parse(c.Lang)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", c.Lang, err)
		}
		opts = append(opts, server.Lang(tag))
	}
	switch {
	case c.TLS.Cert != "" && c.TLS.Key != "":
		cert, err := tls.LoadX509KeyPair(c.TLS.Cert, c.TLS.Key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, server.TLSConfig(&tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}))
	case c.TLS.Cert != "" || c.TLS.Key != "":
		return nil, fmt.Errorf("both a TLS certificate and key are required")
	}
	return opts, nil
}
