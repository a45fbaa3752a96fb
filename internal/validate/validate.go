// Package validate runs layered checks over uploaded photo bytes. Basic and
// format checks block the upload; metadata checks only produce advisory
// warnings for the review queue.
package validate

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/bep/imagemeta"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Size and dimension limits for uploaded photos.
const (
	MinBytes = 10 * 1024
	MaxBytes = 10 * 1024 * 1024

	MinDimension = 200
	MaxDimension = 4000
)

// Report is the outcome of validating one upload. Errors block the upload,
// warnings do not.
type Report struct {
	Valid    bool     `json:"valid"`
	Format   string   `json:"format,omitempty"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Check runs every layer over the photo bytes. Later layers are skipped once
// a blocking layer fails.
func Check(data []byte) *Report {
	report := &Report{}

	checkBasic(data, report)
	if len(report.Errors) == 0 {
		checkFormat(data, report)
	}
	if len(report.Errors) == 0 {
		checkMetadata(data, report)
	}

	report.Valid = len(report.Errors) == 0
	return report
}

// checkBasic enforces the raw size limits.
func checkBasic(data []byte, report *Report) {
	switch {
	case len(data) == 0:
		report.Errors = append(report.Errors, "empty upload")
	case len(data) < MinBytes:
		report.Errors = append(report.Errors, fmt.Sprintf("file too small: %d bytes, minimum is %d", len(data), MinBytes))
	case len(data) > MaxBytes:
		report.Errors = append(report.Errors, fmt.Sprintf("file too large: %d bytes, maximum is %d", len(data), MaxBytes))
	}
}

// allowedFormats are the formats accepted for profile photos. Decodable
// formats outside this set (gif, bmp) are still rejected.
var allowedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// checkFormat decodes the image header and enforces format and dimension
// limits.
func checkFormat(data []byte, report *Report) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		report.Errors = append(report.Errors, "file is not a decodable image")
		return
	}
	report.Format = format
	report.Width = cfg.Width
	report.Height = cfg.Height

	if !allowedFormats[format] {
		report.Errors = append(report.Errors, fmt.Sprintf("unsupported image format %q", format))
		return
	}
	if cfg.Width < MinDimension || cfg.Height < MinDimension {
		report.Errors = append(report.Errors, fmt.Sprintf("image too small: %dx%d, minimum side is %d", cfg.Width, cfg.Height, MinDimension))
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		report.Errors = append(report.Errors, fmt.Sprintf("image too large: %dx%d, maximum side is %d", cfg.Width, cfg.Height, MaxDimension))
	}
}

// stockKeywords are substrings that indicate a stock-photo agency when found
// in a rights or credit field.
var stockKeywords = []string{
	"shutterstock",
	"gettyimages",
	"getty images",
	"istockphoto",
	"istock",
	"alamy",
	"depositphotos",
	"dreamstime",
	"123rf",
	"adobestock",
	"adobe stock",
	"stocksy",
	"freepik",
}

// metadataTags maps (source, tag-name) to true for every tag the advisory
// layer inspects.
var metadataTags = map[imagemeta.Source]map[string]bool{
	imagemeta.IPTC: {
		"CopyrightNotice": true,
		"Credit":          true,
		"Byline":          true,
		"Source":          true,
	},
	imagemeta.EXIF: {
		"Copyright": true,
		"Artist":    true,
		"Software":  true,
	},
	imagemeta.XMP: {
		"Rights":  true,
		"Creator": true,
	},
}

// editorKeywords are substrings of the EXIF Software tag that indicate the
// photo went through an image editor.
var editorKeywords = []string{
	"photoshop",
	"gimp",
	"lightroom",
	"affinity",
	"pixelmator",
	"facetune",
}

// checkMetadata inspects EXIF/IPTC/XMP rights fields for hints that the photo
// is not the uploader's own, and the Software tag for editing tools. Parse
// failures are ignored: metadata is advisory only.
func checkMetadata(data []byte, report *Report) {
	var fields []string
	var software string

	err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if tags, ok := metadataTags[ti.Source]; ok {
				return tags[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s := tagValueString(ti.Value)
			if s == "" {
				return nil
			}
			if ti.Source == imagemeta.EXIF && ti.Tag == "Software" {
				software = s
				return nil
			}
			fields = append(fields, s)
			return nil
		},
	})
	if err != nil {
		return
	}

	if software != "" {
		lower := strings.ToLower(software)
		for _, kw := range editorKeywords {
			if strings.Contains(lower, kw) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("image edited with %q", software))
				break
			}
		}
	}

	for _, f := range fields {
		lower := strings.ToLower(f)
		for _, kw := range stockKeywords {
			if strings.Contains(lower, kw) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("metadata mentions stock agency: %q", f))
				return
			}
		}
	}
	if len(fields) > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("image carries rights metadata: %q", fields[0]))
	}
}

// tagValueString extracts a string from a tag value. XMP values may arrive as
// string slices.
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
