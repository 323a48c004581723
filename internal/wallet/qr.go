package wallet

import (
	"fmt"
	"os"

	"github.com/skip2/go-qrcode"
)

const DefaultQRSize = 256

// AddressQR renders address as a PNG QR code.
func AddressQR(address string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	qr, err := qrcode.New(address, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PNG: %w", err)
	}
	return png, nil
}

// WriteAddressQR stores the QR code for address at path.
func WriteAddressQR(address, path string, size int) error {
	png, err := AddressQR(address, size)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("failed to write QR code: %w", err)
	}
	return nil
}
