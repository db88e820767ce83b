// Package qrcode renders QR code images for PIX charges.
//
// ValidatePix checks that a copy-and-paste payload is a well-formed EMV
// BR Code: it must start with the payload format indicator "000201" and end
// with the CRC field "6304" followed by the CRC-16/CCITT-FALSE checksum of
// everything before it. Generate and GenerateDataURI encode any content as a
// PNG using github.com/skip2/go-qrcode.
package qrcode
