package config

import (
	"fmt"
	"strings"
)

const (
	BackendEspeak       = "espeak"
	BackendEspeakMbrola = "espeak-mbrola"
	BackendFestival     = "festival"
	BackendSegments     = "segments"
)

func NormalizeBackend(raw string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(raw))
	if backend == "" {
		backend = BackendEspeak
	}
	switch backend {
	case BackendEspeak, BackendEspeakMbrola, BackendFestival, BackendSegments:
		return backend, nil
	case "espeak-ng":
		return BackendEspeak, nil
	case "mbrola":
		return BackendEspeakMbrola, nil
	default:
		return "", fmt.Errorf(
			"invalid backend %q (expected %s|%s|%s|%s)",
			raw,
			BackendEspeak,
			BackendEspeakMbrola,
			BackendFestival,
			BackendSegments,
		)
	}
}
