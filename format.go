package rescale

import (
	"path/filepath"
	"strings"
)

// Format is one of the image formats supported for both decoding and encoding.
type Format int

// The supported formats.
const (
	JPEG Format = iota
	GIF
	PNG
	XBM
	WBMP
	BMP
	WEBP
)

var formatNames = map[Format]string{
	JPEG: "jpeg",
	GIF:  "gif",
	PNG:  "png",
	XBM:  "xbm",
	WBMP: "wbmp",
	BMP:  "bmp",
	WEBP: "webp",
}

var formatExts = map[string]Format{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".gif":  GIF,
	".png":  PNG,
	".xbm":  XBM,
	".wbmp": WBMP,
	".bmp":  BMP,
	".webp": WEBP,
}

// Formats returns every supported format.
func Formats() []Format {
	return []Format{JPEG, GIF, PNG, XBM, WBMP, BMP, WEBP}
}

// Extensions returns the file extensions recognized on output paths.
func Extensions() []string {
	exts := make([]string, 0, len(formatExts))
	for ext := range formatExts {
		exts = append(exts, ext)
	}
	return exts
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// Ext returns the canonical file extension of the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case GIF:
		return ".gif"
	case PNG:
		return ".png"
	case XBM:
		return ".xbm"
	case WBMP:
		return ".wbmp"
	case BMP:
		return ".bmp"
	case WEBP:
		return ".webp"
	}
	return ""
}

// FormatFromName maps the name reported by the codec registry
// (as returned by image.Decode) to a supported format.
func FormatFromName(name string) (Format, error) {
	name = strings.ToLower(name)
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	if f, ok := formatExts["."+name]; ok {
		return f, nil
	}
	return 0, &UnsupportedFormatError{Name: name}
}

// FormatFromPath returns the format selected by the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formatExts[ext]; ok {
		return f, nil
	}
	if ext == "" {
		return 0, &UnsupportedFormatError{Name: filepath.Base(path)}
	}
	return 0, &UnsupportedFormatError{Name: strings.TrimPrefix(ext, ".")}
}

// isSupportedExt checks whether the file extension belongs to a supported format.
func isSupportedExt(path string) bool {
	_, ok := formatExts[strings.ToLower(filepath.Ext(path))]
	return ok
}
