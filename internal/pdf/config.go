package pdf

import (
	"os"
	"path/filepath"
)

// CompanyInfo is the seller identity printed on every document.
type CompanyInfo struct {
	Name      string
	Desc      string
	Address   string
	Tel       string
	Fax       string
	Email     string
	Website   string
	Watermark string
}

// RenderConfig holds the process-wide, read-only rendering constants:
// company identity, font and logo asset paths, and page geometry.
// It is resolved once at startup and shared by all render calls.
type RenderConfig struct {
	Company             CompanyInfo
	LogoPath            string
	PrimaryFontPath     string
	PrimaryFontBoldPath string
	ArabicFontPath      string
	PageMargin          float64 // mm
}

// DefaultConfig returns the HEO render configuration. Asset locations can
// be moved with ASSETS_DIR; missing assets degrade, they never fail.
func DefaultConfig() RenderConfig {
	assets := os.Getenv("ASSETS_DIR")
	if assets == "" {
		assets = "assets"
	}
	return RenderConfig{
		Company: CompanyInfo{
			Name:      "EL HEKMA ENGINEERING OFFICE Co.",
			Desc:      "For Medical Devices & Supplies AND Professional Engineering Solutions",
			Address:   "41 Al-Mawardi Street, Al-Qasr Al-Aini, Cairo, Egypt",
			Tel:       "+201026531004 / +201147304880",
			Fax:       "+2027932115",
			Email:     "info@heomed.com",
			Website:   "www.heomed.com",
			Watermark: "HEO",
		},
		LogoPath:            filepath.Join(assets, "logo1.png"),
		PrimaryFontPath:     filepath.Join(assets, "fonts", "Roboto-Regular.ttf"),
		PrimaryFontBoldPath: filepath.Join(assets, "fonts", "Roboto-Bold.ttf"),
		ArabicFontPath:      filepath.Join(assets, "fonts", "Tajawal-Regular.ttf"),
		PageMargin:          12,
	}
}
