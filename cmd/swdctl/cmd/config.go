// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config collects everything the probe backends need. Values come from
// the TOML file named by --config, with flags overriding.
type Config struct {
	Transport string
	ClockHz   int

	CMSISDAP struct {
		VID uint16
		PID uint16
	}
	Bitbang struct {
		SWCLK string
		SWDIO string
	}
	RBB struct {
		Address string
		Port    string
		Baud    int
	}
}

type fileConfig struct {
	Transport string `toml:"transport"`
	ClockHz   int    `toml:"clock_hz"`

	CMSISDAP struct {
		VID int `toml:"vid"`
		PID int `toml:"pid"`
	} `toml:"cmsisdap"`

	Bitbang struct {
		SWCLK string `toml:"swclk"`
		SWDIO string `toml:"swdio"`
	} `toml:"bitbang"`

	RBB struct {
		Address string `toml:"address"`
		Port    string `toml:"port"`
		Baud    int    `toml:"baud"`
	} `toml:"rbb"`
}

func defaultConfig() Config {
	cfg := Config{Transport: "sim"}
	cfg.CMSISDAP.VID = 0xC251 // Keil's shared CMSIS-DAP reference IDs
	cfg.CMSISDAP.PID = 0xF001
	cfg.Bitbang.SWCLK = "GPIO11"
	cfg.Bitbang.SWDIO = "GPIO25"
	cfg.RBB.Address = "localhost:3335"
	return cfg
}

// loadConfig builds the effective configuration from the defaults, the
// optional TOML file and the command-line flags, in that order.
func loadConfig() (Config, error) {
	cfg := defaultConfig()

	if configPath != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(configPath, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}

		if meta.IsDefined("transport") {
			cfg.Transport = strings.TrimSpace(raw.Transport)
		}
		if meta.IsDefined("clock_hz") {
			cfg.ClockHz = raw.ClockHz
		}
		if meta.IsDefined("cmsisdap", "vid") {
			cfg.CMSISDAP.VID = uint16(raw.CMSISDAP.VID)
		}
		if meta.IsDefined("cmsisdap", "pid") {
			cfg.CMSISDAP.PID = uint16(raw.CMSISDAP.PID)
		}
		if meta.IsDefined("bitbang", "swclk") {
			cfg.Bitbang.SWCLK = strings.TrimSpace(raw.Bitbang.SWCLK)
		}
		if meta.IsDefined("bitbang", "swdio") {
			cfg.Bitbang.SWDIO = strings.TrimSpace(raw.Bitbang.SWDIO)
		}
		if meta.IsDefined("rbb", "address") {
			cfg.RBB.Address = strings.TrimSpace(raw.RBB.Address)
		}
		if meta.IsDefined("rbb", "port") {
			cfg.RBB.Port = strings.TrimSpace(raw.RBB.Port)
		}
		if meta.IsDefined("rbb", "baud") {
			cfg.RBB.Baud = raw.RBB.Baud
		}
	}

	if transportName != "" {
		cfg.Transport = transportName
	}
	return cfg, nil
}
