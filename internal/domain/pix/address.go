package pix

import "strings"

// Address は自由入力の住所文字列から取り出した断片。
type Address struct {
	Street     string
	City       string
	State      string
	PostalCode string
}

// ParseAddress は "<street>, <city> - <state>, <postal code>" 形式を前提に分解する。
// 最後のカンマ区切りを郵便番号、その1つ前を "city - state" として扱う。
// ヒューリスティックなので、構造化された住所がある店舗ではそちらを使う。
func ParseAddress(text string) Address {
	raw := strings.Split(text, ",")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	switch len(parts) {
	case 0:
		return Address{}
	case 1:
		return Address{Street: parts[0]}
	}

	addr := Address{PostalCode: parts[len(parts)-1]}
	addr.City, addr.State = splitCityState(parts[len(parts)-2])
	addr.Street = strings.Join(parts[:len(parts)-2], ", ")
	return addr
}

func splitCityState(seg string) (string, string) {
	i := strings.LastIndex(seg, "-")
	if i < 0 {
		return strings.TrimSpace(seg), ""
	}
	return strings.TrimSpace(seg[:i]), strings.ToUpper(strings.TrimSpace(seg[i+1:]))
}

// MerchantCity はフィールド60の値を決める。
// 州(UF)が分かればそれを、なければ市名を使う。
func MerchantCity(city, state string) string {
	if s := strings.TrimSpace(state); s != "" {
		return SanitizeMerchantCity(s)
	}
	return SanitizeMerchantCity(city)
}
