package pix

import "fmt"

const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// CRC16 はCRC16-CCITT(poly 0x1021, init 0xFFFF, xorout なし)を返す。
// BR Code の最終フィールド(ID 63)の値になる。
func CRC16(data []byte) uint16 {
	crc := uint16(crcInitial)
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CRC16Hex はチェックサムを大文字16進4桁で返す。
func CRC16Hex(data []byte) string {
	return fmt.Sprintf("%04X", CRC16(data))
}
