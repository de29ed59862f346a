package invoice

import (
	"math"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// vnZone 印度支那时间，固定偏移，无需 tzdata
var vnZone = time.FixedZone("ICT", 7*60*60)

var printer = message.NewPrinter(language.Vietnamese)

// fold 去掉越南语声调符号，PDF 内置字体只覆盖 Latin-1
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}

// FormatCurrency 以点分组输出整数越南盾，如 "20.000.000 VND"
func FormatCurrency(amount float64) string {
	return printer.Sprintf("%d", int64(math.Round(amount))) + " VND"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.In(vnZone).Format("02/01/2006 15:04")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
