package pix

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxMerchantNameLen = 25
	maxMerchantCityLen = 15
	maxTxIDLen         = 25

	defaultMerchantName = "LOJA"
	defaultMerchantCity = "BRASIL"
	// 参照なしのときのtxid(BR Code の仕様)
	emptyTxID = "***"
)

// foldASCII はアクセントを落として(é→e, ç→c)、印字可能ASCII以外を取り除く。
// 連続する空白は1つにまとめる。
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range folded {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		} else if unicode.IsSpace(r) {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}

// SanitizeMerchantName はフィールド59用に整形する(大文字・ASCII・25文字以内)。
func SanitizeMerchantName(name string) string {
	v := truncate(strings.ToUpper(foldASCII(name)), maxMerchantNameLen)
	if v == "" {
		return defaultMerchantName
	}
	return v
}

// SanitizeMerchantCity はフィールド60用に整形する(大文字・ASCII・15文字以内)。
func SanitizeMerchantCity(city string) string {
	v := truncate(strings.ToUpper(foldASCII(city)), maxMerchantCityLen)
	if v == "" {
		return defaultMerchantCity
	}
	return v
}

// SanitizeTxID は英数字だけを残す。空なら "***"。
func SanitizeTxID(txid string) string {
	var b strings.Builder
	for _, r := range txid {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	v := b.String()
	if len(v) > maxTxIDLen {
		v = v[:maxTxIDLen]
	}
	if v == "" {
		return emptyTxID
	}
	return v
}
