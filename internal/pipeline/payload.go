package pipeline

import (
	"fmt"
	"strings"

	"clipsmith/internal/highlights"
	"clipsmith/internal/jobs"
	"clipsmith/internal/services"
)

const (
	minTargetLengthSec = 60
	maxTargetLengthSec = 90
	minVariantLenSec   = 45
	maxVariantLenSec   = 180
)

// SanitizePayload bounds-checks caller input before any external process
// sees it. The returned payload is the one the phases run against.
func SanitizePayload(p jobs.Payload) (jobs.Payload, error) {
	p.Phase = strings.ToLower(strings.TrimSpace(p.Phase))
	switch p.Phase {
	case "":
		p.Phase = jobs.PhaseLegacy
	case jobs.PhaseAnalyze, jobs.PhaseRender, jobs.PhaseLegacy:
	default:
		return p, services.Wrap(services.ErrValidation, "sanitize", "phase",
			fmt.Sprintf("unknown phase %q", p.Phase), nil)
	}

	if p.OutputMode != "variants" {
		p.OutputMode = "single"
	}

	if p.TargetLengthSec == 0 {
		p.TargetLengthSec = 75
	}
	if p.TargetLengthSec < minTargetLengthSec {
		p.TargetLengthSec = minTargetLengthSec
	}
	if p.TargetLengthSec > maxTargetLengthSec {
		p.TargetLengthSec = maxTargetLengthSec
	}

	p.URLOriginal = strings.TrimSpace(p.URLOriginal)
	p.URLNormalized = strings.TrimSpace(p.URLNormalized)
	if p.URLNormalized == "" {
		p.URLNormalized = p.URLOriginal
	}
	p.AnalysisJobID = strings.TrimSpace(p.AnalysisJobID)

	if p.URLNormalized == "" && p.Phase != jobs.PhaseRender {
		return p, services.Wrap(services.ErrValidation, "sanitize", "url",
			"a source url is required", nil)
	}

	if len(p.VariantDurations) > 0 {
		cleaned := make(map[string]int, len(p.VariantDurations))
		for key, sec := range p.VariantDurations {
			if _, ok := highlights.StrategyByKey(key); !ok {
				continue
			}
			if sec < minVariantLenSec {
				sec = minVariantLenSec
			}
			if sec > maxVariantLenSec {
				sec = maxVariantLenSec
			}
			cleaned[key] = sec
		}
		p.VariantDurations = cleaned
	}

	return p, nil
}

// variantDurations merges the sanitized per-variant overrides onto the
// defaults.
func variantDurations(p jobs.Payload) map[string]float64 {
	durations := make(map[string]float64, len(highlights.DefaultVariantDurations))
	for key, sec := range highlights.DefaultVariantDurations {
		durations[key] = sec
	}
	for key, sec := range p.VariantDurations {
		durations[key] = float64(sec)
	}
	return durations
}
