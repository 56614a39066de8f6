// Watchpost - Activity Classification for Security Cameras
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/watchpost

package activity

const (
	highSeverityConfidence = 0.8
	normalConfidence       = 0.9
)

// Verdict pairs a detector judgment with its category.
type Verdict struct {
	Type     ActivityType
	Judgment Judgment
}

// SeverityFor maps a classification to its display tier.
func SeverityFor(t ActivityType, confidence float64) Severity {
	switch t {
	case ActivityNormal:
		return SeverityNone
	case ActivitySuspicious:
		return SeverityLow
	}
	if confidence > highSeverityConfidence {
		return SeverityHigh
	}
	return SeverityMedium
}

// Resolve picks the first triggered verdict in priority order. The fallback
// is only evaluated when no ranked verdict triggered; when it does not
// trigger either, the frame is normal.
func Resolve(ranked []Verdict, fallback func() Judgment) ActivityAnalysis {
	for _, v := range ranked {
		if v.Judgment.Triggered {
			return analysisOf(v.Type, v.Judgment)
		}
	}
	if fallback != nil {
		if j := fallback(); j.Triggered {
			return analysisOf(ActivitySuspicious, j)
		}
	}
	return ActivityAnalysis{
		Type:       ActivityNormal,
		Confidence: normalConfidence,
		Details:    "No suspicious activity detected",
		Severity:   SeverityNone,
	}
}

// InitialAnalysis is reported while there is no previous pose to compare.
func InitialAnalysis() ActivityAnalysis {
	return ActivityAnalysis{
		Type:     ActivityNormal,
		Details:  "Initializing detection...",
		Severity: SeverityNone,
	}
}

func analysisOf(t ActivityType, j Judgment) ActivityAnalysis {
	return ActivityAnalysis{
		Type:       t,
		Confidence: j.Confidence,
		Details:    j.Details,
		Severity:   SeverityFor(t, j.Confidence),
	}
}
