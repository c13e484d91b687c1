package service

import (
	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 256

type QRGenerator interface {
	Generate(content string) ([]byte, error)
}

// DefaultQRGenerator renders a PNG QR code pointing at a checkout link.
type DefaultQRGenerator struct {
	Size int
}

func (g DefaultQRGenerator) Generate(content string) ([]byte, error) {
	size := g.Size
	if size <= 0 {
		size = defaultQRSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
