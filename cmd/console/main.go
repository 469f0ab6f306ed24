package main

import (
	"github.com/nghyane/mux-console/internal/buildinfo"
	"github.com/nghyane/mux-console/internal/cli"
	"github.com/nghyane/mux-console/internal/logging"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

func main() {
	cli.Execute()
}
