package pix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	payloadFormatIndicator = "01"
	pixGUI                 = "BR.GOV.BCB.PIX"
	merchantCategoryCode   = "0000"
	currencyBRL            = "986"
	countryCode            = "BR"

	// "63" + "04"。CRCはこの4文字も含めて計算する。
	crcPrefix = IDCRC + "04"

	maxPixKeyLen = 77
	maxAmountLen = 13
)

var (
	ErrMissingPixKey = errors.New("store has no payment key configured")
	ErrInvalidPixKey = errors.New("invalid pix key")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrChecksum      = errors.New("pix payload checksum mismatch")
)

// Payload はPIXコードを作るための入力。
type Payload struct {
	PixKey       string
	Amount       decimal.Decimal
	MerchantName string
	MerchantCity string
	TxID         string
}

// Encode はEMV MPM(BR Code)文字列を組み立ててCRCを付ける。
// 同じ入力なら必ず同じ文字列になる。
func Encode(p Payload) (string, error) {
	key := strings.TrimSpace(p.PixKey)
	if key == "" {
		return "", ErrMissingPixKey
	}
	if len(key) > maxPixKeyLen {
		return "", ErrInvalidPixKey
	}

	amount, err := FormatAmount(p.Amount)
	if err != nil {
		return "", err
	}

	account := EncodeFields(
		Field{ID: IDAccountGUI, Value: pixGUI},
		Field{ID: IDAccountKey, Value: key},
	)
	additional := EncodeField(IDAdditionalReference, SanitizeTxID(p.TxID))

	body := EncodeFields(
		Field{ID: IDPayloadFormat, Value: payloadFormatIndicator},
		Field{ID: IDMerchantAccount, Value: account},
		Field{ID: IDMerchantCategory, Value: merchantCategoryCode},
		Field{ID: IDCurrency, Value: currencyBRL},
		Field{ID: IDAmount, Value: amount},
		Field{ID: IDCountry, Value: countryCode},
		Field{ID: IDMerchantName, Value: SanitizeMerchantName(p.MerchantName)},
		Field{ID: IDMerchantCity, Value: SanitizeMerchantCity(p.MerchantCity)},
		Field{ID: IDAdditionalData, Value: additional},
	)

	return Sign(body), nil
}

// Sign は "6304" を付けてCRCを計算し、末尾に付け足す。
func Sign(body string) string {
	withPrefix := body + crcPrefix
	return withPrefix + CRC16Hex([]byte(withPrefix))
}

// FormatAmount は小数2桁・ドット区切りの文字列にする(ロケール非依存)。
func FormatAmount(amount decimal.Decimal) (string, error) {
	if amount.IsNegative() {
		return "", fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	s := amount.StringFixed(2)
	if len(s) > maxAmountLen {
		return "", fmt.Errorf("%w: too large", ErrInvalidAmount)
	}
	return s, nil
}

// Verify は末尾のCRCが本文と一致するか確認する。
func Verify(code string) error {
	if len(code) < len(crcPrefix)+4 {
		return ErrMalformedPayload
	}
	split := len(code) - 4
	if code[split-len(crcPrefix):split] != crcPrefix {
		return fmt.Errorf("%w: missing crc field", ErrMalformedPayload)
	}
	if got, want := strings.ToUpper(code[split:]), CRC16Hex([]byte(code[:split])); got != want {
		return fmt.Errorf("%w: got %s want %s", ErrChecksum, got, want)
	}
	return nil
}

// Decoded はPIXコードを読み戻した結果。
type Decoded struct {
	PixKey       string
	Amount       string
	MerchantName string
	MerchantCity string
	TxID         string
	CRC          string
}

// Parse はCRCを確認したうえでPIXコードを読み戻す。
func Parse(code string) (Decoded, error) {
	if err := Verify(code); err != nil {
		return Decoded{}, err
	}
	top, err := Decode(code)
	if err != nil {
		return Decoded{}, err
	}

	var out Decoded
	out.Amount, _ = Lookup(top, IDAmount)
	out.MerchantName, _ = Lookup(top, IDMerchantName)
	out.MerchantCity, _ = Lookup(top, IDMerchantCity)
	out.CRC, _ = Lookup(top, IDCRC)

	if v, ok := Lookup(top, IDMerchantAccount); ok {
		sub, err := Decode(v)
		if err != nil {
			return Decoded{}, err
		}
		out.PixKey, _ = Lookup(sub, IDAccountKey)
	}
	if v, ok := Lookup(top, IDAdditionalData); ok {
		sub, err := Decode(v)
		if err != nil {
			return Decoded{}, err
		}
		out.TxID, _ = Lookup(sub, IDAdditionalReference)
	}
	return out, nil
}
