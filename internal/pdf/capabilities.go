package pdf

import "os"

// Capabilities records which optional rendering features are usable.
// It is probed once at startup and threaded through the builder and the
// engine explicitly, so every degrade path can be exercised in tests by
// handing in a narrowed value instead of hiding assets on disk.
type Capabilities struct {
	Shaping     bool // Arabic letter joining + bidi reordering
	PDFEngine   bool // PDF layout engine; false forces the plain-text fallback
	PrimaryFont bool // Roboto regular + bold present on disk
	ArabicFont  bool // Tajawal present on disk
	ImageMeta   bool // logo dimensions can be introspected
	Logo        bool // logo asset present on disk
}

// Detect probes the filesystem-backed assets. The compiled-in features
// (shaping, engine, image decoding) are always on; their flags exist so
// callers can switch them off.
func Detect(cfg RenderConfig) Capabilities {
	return Capabilities{
		Shaping:     true,
		PDFEngine:   true,
		ImageMeta:   true,
		PrimaryFont: fileExists(cfg.PrimaryFontPath) && fileExists(cfg.PrimaryFontBoldPath),
		ArabicFont:  fileExists(cfg.ArabicFontPath),
		Logo:        fileExists(cfg.LogoPath),
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
