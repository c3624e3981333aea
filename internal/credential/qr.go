package credential

import (
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

// QRRenderer writes scannable card images to disk. The PNG path is what gets
// attached to welcome emails.
type QRRenderer struct {
	outputDir string
}

func NewQRRenderer(outputDir string) *QRRenderer {
	return &QRRenderer{outputDir: outputDir}
}

// Render encodes the card id into a PNG under the output directory and
// returns the file path. High error-correction so a printed card survives
// wear at the door.
func (r *QRRenderer) Render(cardID string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create qr output dir: %w", err)
	}
	path := filepath.Join(r.outputDir, cardID+".png")
	if err := qrcode.WriteFile(cardID, qrcode.High, 512, path); err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}
	return path, nil
}
