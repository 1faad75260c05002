package utils

import qrcode "github.com/skip2/go-qrcode"

// QREncoder renders URLs as PNG QR codes.
type QREncoder struct {
	Level qrcode.RecoveryLevel
	Size  int // image width and height in pixels
}

// NewQREncoder returns an encoder producing 256px images with medium error
// correction.
func NewQREncoder() QREncoder {
	return QREncoder{Level: qrcode.Medium, Size: 256}
}

// Encode returns the PNG bytes of a QR code for url.
func (q QREncoder) Encode(url string) ([]byte, error) {
	return qrcode.Encode(url, q.Level, q.Size)
}
