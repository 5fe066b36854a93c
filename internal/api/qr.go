package api

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// qrDataURL renders the shareable record URL for a patient's QR code id
// as a PNG data URL suitable for embedding in an <img> tag.
func (s *SaathiApp) qrDataURL(qrCodeId string) (string, error) {
	recordURL := fmt.Sprintf("%s/scan/%s", s.frontendURL, qrCodeId)

	png, err := qrcode.Encode(recordURL, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
