package qrcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidPixPayload = errors.New("qrcode: invalid PIX payload")
	ErrPixChecksum       = errors.New("qrcode: PIX checksum mismatch")
)

const (
	pixHeader   = "000201"
	pixCRCField = "6304"
)

// PixCRC returns the CRC-16/CCITT-FALSE of s as four upper-case hex digits.
func PixCRC(s string) string {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}

// ValidatePix checks the header, the top-level TLV structure and the
// trailing checksum of a PIX payload.
func ValidatePix(payload string) error {
	if !strings.HasPrefix(payload, pixHeader) {
		return fmt.Errorf("%w: missing payload format indicator", ErrInvalidPixPayload)
	}
	if len(payload) < len(pixHeader)+len(pixCRCField)+4 {
		return fmt.Errorf("%w: too short", ErrInvalidPixPayload)
	}

	// Walk the id(2) length(2) value fields; the CRC must be the last one.
	for pos := 0; pos < len(payload); {
		if pos+4 > len(payload) {
			return fmt.Errorf("%w: truncated field at %d", ErrInvalidPixPayload, pos)
		}
		id := payload[pos : pos+2]
		n, err := strconv.Atoi(payload[pos+2 : pos+4])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: bad length at %d", ErrInvalidPixPayload, pos)
		}
		end := pos + 4 + n
		if end > len(payload) {
			return fmt.Errorf("%w: field %s overflows payload", ErrInvalidPixPayload, id)
		}
		if id == "63" && (n != 4 || end != len(payload)) {
			return fmt.Errorf("%w: misplaced CRC field", ErrInvalidPixPayload)
		}
		pos = end
	}

	body, sum := payload[:len(payload)-4], payload[len(payload)-4:]
	if !strings.HasSuffix(body, pixCRCField) {
		return fmt.Errorf("%w: missing CRC field", ErrInvalidPixPayload)
	}
	if !strings.EqualFold(PixCRC(body), sum) {
		return ErrPixChecksum
	}
	return nil
}

// GeneratePix validates payload and renders it as a PNG data URI.
func GeneratePix(payload string, size int) (string, error) {
	if err := ValidatePix(payload); err != nil {
		return "", err
	}
	return GenerateDataURI(payload, size)
}
