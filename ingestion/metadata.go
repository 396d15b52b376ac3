package ingestion

import (
	"regexp"
	"strings"
)

// Metadata keys set by ExtractMetadata.
const (
	MetaProductName    = "product_name"
	MetaUsage          = "usage"
	MetaNormalizedName = "normalized_name"
)

var (
	brandNamePattern = regexp.MustCompile(`(?i)Brand\s*name\s*:\s*(.+)`)
	usagePattern     = regexp.MustCompile(`(?i)Usage\s*:\s*(.+)`)
	leadingIDPattern = regexp.MustCompile(`^\d+[_\-]*`)
	whitespace       = regexp.MustCompile(`\s+`)
	nonSlugPattern   = regexp.MustCompile(`[^a-z0-9\-]`)
)

// ExtractMetadata derives catalog metadata from a document's file name and
// annotated text. Usage is omitted when the text has no "Usage:" line.
func ExtractMetadata(name, text string) map[string]string {
	meta := map[string]string{
		MetaNormalizedName: NormalizeName(name),
	}

	if m := brandNamePattern.FindStringSubmatch(text); m != nil {
		meta[MetaProductName] = strings.TrimSpace(m[1])
	} else {
		meta[MetaProductName] = strings.ReplaceAll(meta[MetaNormalizedName], "-", " ")
	}

	if m := usagePattern.FindStringSubmatch(text); m != nil {
		if usage := whitespace.ReplaceAllString(strings.TrimSpace(m[1]), " "); usage != "" {
			meta[MetaUsage] = usage
		}
	}
	return meta
}

// NormalizeName turns a file name into a slug: the extension and any leading
// numeric ID are dropped, the rest is lower-cased with spaces as dashes.
//
//	"012_Napa Extra.layout.json" -> "napa-extra"
func NormalizeName(name string) string {
	base := trimExtensions(name)
	base = strings.TrimSpace(leadingIDPattern.ReplaceAllString(base, ""))
	base = strings.ToLower(base)
	base = whitespace.ReplaceAllString(base, "-")
	return nonSlugPattern.ReplaceAllString(base, "")
}

// RenditionName returns the file stem used for a document's rendition: the
// input name without directories or known extensions, with path separators
// and other unsafe characters replaced by '_'.
func RenditionName(name string) string {
	stem := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < ' ' {
			return '_'
		}
		return r
	}, trimExtensions(name))
	if stem == "" || stem == "." || stem == ".." {
		return "document"
	}
	return stem
}

func trimExtensions(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	for _, ext := range []string{".json", ".layout", ".pdf"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
