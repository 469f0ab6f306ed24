package service

import (
	"strings"
	"testing"
)

func TestSystemdUnitFile(t *testing.T) {
	unit := systemdUnitFile("/usr/local/bin/mux-console")

	for _, want := range []string{
		"ExecStart=/usr/local/bin/mux-console serve",
		"Restart=always",
		"WantedBy=default.target",
	} {
		if !strings.Contains(unit, want) {
			t.Errorf("unit file missing %q\n%s", want, unit)
		}
	}
}

func TestLaunchdPlistEscapesPaths(t *testing.T) {
	plist := launchdPlist("/opt/tools & co/mux-console", "/tmp/out.log", "/tmp/err.log")

	if !strings.Contains(plist, "/opt/tools &amp; co/mux-console") {
		t.Errorf("executable path not XML-escaped:\n%s", plist)
	}
	if !strings.Contains(plist, "<string>serve</string>") {
		t.Error("plist should invoke the serve command")
	}
	if !strings.Contains(plist, launchdLabel) {
		t.Error("plist missing the agent label")
	}
}

func TestIsTransientExecutablePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "empty", path: "", want: true},
		{name: "go run cache", path: "/tmp/go-build2816293917/b001/exe/main", want: true},
		{name: "installed binary", path: "/usr/local/bin/mux-console", want: false},
		{name: "home build", path: "/home/dev/bin/mux-console", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isTransientExecutablePath(tt.path); got != tt.want {
				t.Errorf("isTransientExecutablePath(%q) = %t, want %t", tt.path, got, tt.want)
			}
		})
	}
}
