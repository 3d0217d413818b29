package pdf

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetectProbesAssets(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	cfg := RenderConfig{
		LogoPath:            write("logo1.png"),
		PrimaryFontPath:     write("Roboto-Regular.ttf"),
		PrimaryFontBoldPath: filepath.Join(dir, "missing-bold.ttf"),
		ArabicFontPath:      write("Tajawal-Regular.ttf"),
	}
	caps := Detect(cfg)

	if !caps.Shaping || !caps.PDFEngine || !caps.ImageMeta {
		t.Errorf("compiled-in capabilities off: %+v", caps)
	}
	if caps.PrimaryFont {
		t.Error("primary font reported present with the bold weight missing")
	}
	if !caps.ArabicFont || !caps.Logo {
		t.Errorf("asset probes wrong: %+v", caps)
	}
}
