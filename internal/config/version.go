package config

// Version is overridden at build time with -ldflags "-X github.com/pyneda/stapi/internal/config.Version=...".
var Version = "dev"
