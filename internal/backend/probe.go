package backend

import (
	"context"
	"os/exec"
)

// Info describes an engine's availability on this system, for listings.
type Info struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
}

// Probe checks one engine without constructing it, so listings work even
// when no language is configured for the engine.
func Probe(ctx context.Context, name string) Info {
	info := Info{Name: name}

	switch name {
	case NameEspeak:
		if exe := findEspeak(); exe != "" {
			info.Available = true
			if v, err := espeakVersion(ctx, runCommand, exe); err == nil {
				info.Version = v
			}
		}
	case NameEspeakMbrola:
		exe := findEspeak()
		_, mbrolaErr := exec.LookPath("mbrola")
		if exe != "" && mbrolaErr == nil {
			info.Available = true
			if v, err := espeakVersion(ctx, runCommand, exe); err == nil {
				info.Version = v
			}
		}
	case NameFestival:
		if exe, err := exec.LookPath("festival"); err == nil {
			info.Available = true
			f := &festival{exe: exe, run: runCommand}
			if v, err := f.Version(); err == nil {
				info.Version = v
			}
		}
	case NameSegments:
		info.Available = true
		info.Version = segmentsVersion
	}
	return info
}

// ProbeAll probes every known engine, in display order.
func ProbeAll(ctx context.Context) []Info {
	infos := make([]Info, 0, len(Names()))
	for _, name := range Names() {
		infos = append(infos, Probe(ctx, name))
	}
	return infos
}
