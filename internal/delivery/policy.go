// Package delivery decides how a research result reaches the client:
// inline in the protocol response, or offloaded to blob storage behind
// a signed retrieval URL.
package delivery

import (
	"fmt"
	"strings"
)

// SizeThresholdKB is the inline safety threshold. Many protocol clients
// truncate or reject messages past this size, so larger reports are
// always offloaded. Fixed by design, not configurable.
const SizeThresholdKB = 50.0

// Mode classifies how a single result is delivered. Derived per result,
// never persisted.
type Mode string

const (
	ModeInline    Mode = "inline"
	ModeOffloaded Mode = "offloaded"
)

// Decide picks the delivery mode for a result of sizeKB kilobytes.
// Stateless/remote transports always get a reference: they cannot
// reliably carry arbitrarily large in-band payloads. Local transports
// tolerate inline payloads up to the threshold.
func Decide(sizeKB float64, remote bool) Mode {
	if remote || sizeKB > SizeThresholdKB {
		return ModeOffloaded
	}
	return ModeInline
}

// RetrievalInstructions builds the content block returned in place of
// an offloaded report. It is actionable guidance, not just a link:
// many calling agents will not follow a bare URL on their own.
func RetrievalInstructions(query, url string, sizeKB float64) string {
	filename := Slug(query) + ".md"
	var sb strings.Builder
	fmt.Fprintf(&sb, "The research report (%.1f KB) was too large to return inline and has been uploaded.\n\n", sizeKB)
	fmt.Fprintf(&sb, "Download it with:\n\n    curl -o %s '%s'\n\n", filename, url)
	fmt.Fprintf(&sb, "The link is valid for 7 days. Save the file as %s and read it locally.", filename)
	return sb.String()
}

// Slug derives a filesystem- and object-path-safe name from a query:
// lower-cased, runs of non-alphanumerics collapsed to single hyphens,
// capped at 50 characters.
func Slug(query string) string {
	var sb strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(query) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
		if sb.Len() >= 50 {
			break
		}
	}
	slug := strings.TrimRight(sb.String(), "-")
	if slug == "" {
		return "report"
	}
	return slug
}
