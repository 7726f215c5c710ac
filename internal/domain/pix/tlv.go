package pix

import (
	"errors"
	"fmt"
	"strings"
)

// BR Code のフィールドID
const (
	IDPayloadFormat       = "00"
	IDMerchantAccount     = "26"
	IDMerchantCategory    = "52"
	IDCurrency            = "53"
	IDAmount              = "54"
	IDCountry             = "58"
	IDMerchantName        = "59"
	IDMerchantCity        = "60"
	IDAdditionalData      = "62"
	IDCRC                 = "63"
	IDAccountGUI          = "00"
	IDAccountKey          = "01"
	IDAdditionalReference = "05"
)

const maxFieldLen = 99

var ErrMalformedPayload = errors.New("malformed pix payload")

// Field は1つのTLV要素。
type Field struct {
	ID    string
	Value string
}

// EncodeField は ID(2桁) + 長さ(2桁) + 値 を返す。
// 長さは値のバイト数。99バイトを超える値は呼び出し側のバグなのでpanicする。
func EncodeField(id, value string) string {
	if len(id) != 2 {
		panic(fmt.Sprintf("pix: invalid field id %q", id))
	}
	if len(value) > maxFieldLen {
		panic(fmt.Sprintf("pix: field %s value too long (%d bytes)", id, len(value)))
	}
	return id + fmt.Sprintf("%02d", len(value)) + value
}

// EncodeFields はフィールドを順番に連結する。
func EncodeFields(fields ...Field) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(EncodeField(f.ID, f.Value))
	}
	return b.String()
}

// Decode はTLV文字列を1階層分だけ読む。
// 複合フィールド(26, 62)は Value をもう一度 Decode する。
func Decode(s string) ([]Field, error) {
	fields := make([]Field, 0, 12)
	for pos := 0; pos < len(s); {
		if pos+4 > len(s) {
			return nil, fmt.Errorf("%w: truncated header at %d", ErrMalformedPayload, pos)
		}
		id := s[pos : pos+2]
		n, ok := parseLength(s[pos+2 : pos+4])
		if !ok {
			return nil, fmt.Errorf("%w: invalid length for field %s", ErrMalformedPayload, id)
		}
		start := pos + 4
		end := start + n
		if end > len(s) {
			return nil, fmt.Errorf("%w: field %s overruns payload", ErrMalformedPayload, id)
		}
		fields = append(fields, Field{ID: id, Value: s[start:end]})
		pos = end
	}
	return fields, nil
}

// 長さは ASCII 数字2桁のみ。符号や空白は不正。
func parseLength(s string) (int, bool) {
	if len(s) != 2 || !isDigit(s[0]) || !isDigit(s[1]) {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// Lookup は最初に見つかったIDの値を返す。
func Lookup(fields []Field, id string) (string, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f.Value, true
		}
	}
	return "", false
}
