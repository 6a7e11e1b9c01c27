package main

import (
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileConfig is the optional JSON configuration file accepted by --config,
// overriding the program/SID selection and initial palette.
type fileConfig struct {
	SID      *int   `json:"sid"`
	Palette  int    `json:"palette"`
	WatchDir string `json:"watch_dir"`
}

func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
