package validation

import (
	"html"
	"regexp"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// strictPolicy は全タグを除去するポリシー。script/styleは中身ごと削除される。
	strictPolicy = bluemonday.StrictPolicy()

	tagResiduePattern    = regexp.MustCompile(`<[^>]*>`)
	entityResiduePattern = regexp.MustCompile(`&#?[a-zA-Z0-9]+;`)
	entityResiduePrefix  = regexp.MustCompile(`^&#?[a-zA-Z0-9]+;`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
)

// SanitizeComment はコメント本文からHTMLを取り除きプレーンテキストにする。
// 出力はプレーンテキストとしてのみ表示されることを前提としており、
// HTMLとして再解釈してはならない。
//
// 出力にはデコード可能なエンティティの開始もタグの開始も残らないため、
// 結果に再度適用しても変化しない（冪等）。処理は入力長に対して線形。
func SanitizeComment(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = html.UnescapeString(s)
	s = strictPolicy.Sanitize(s)
	// bluemondayはテキストをエスケープして返すため元に戻す
	s = html.UnescapeString(s)
	s = tagResiduePattern.ReplaceAllString(s, "")
	s = entityResiduePattern.ReplaceAllString(s, "")
	s = dropMarkupStarts(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// dropMarkupStarts はエンティティまたはタグの開始となる'&'と'<'を取り除く。
// 後ろから走査し、判定には確定済みの後続文字列だけを使うため、
// 除去によって新たな開始が生まれることはない。
func dropMarkupStarts(s string) string {
	rev := make([]byte, 0, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		switch c {
		case '&':
			if startsEntity(entityWindow(rev)) {
				continue
			}
		case '<':
			if n := len(rev); n > 0 && isTagStart(rev[n-1]) {
				continue
			}
		}
		rev = append(rev, c)
	}
	slices.Reverse(rev)
	return string(rev)
}

// maxEntityWindow はエンティティ判定で参照する'&'以降の最大バイト数。
// 最長の名前付きエンティティより十分長い。
const maxEntityWindow = 64

// entityWindow は逆順バッファの末尾から、'&'直後にエンティティとして
// 読まれうる範囲（英数字と'#'の連続、続く';'）を正順で返す。
// 連続が上限に達した場合はtruncatedがtrueになる。
func entityWindow(rev []byte) (window string, truncated bool) {
	var b strings.Builder
	b.WriteByte('&')
	for k := len(rev) - 1; k >= 0; k-- {
		c := rev[k]
		if isEntityNameByte(c) {
			if b.Len() > maxEntityWindow {
				return b.String(), true
			}
			b.WriteByte(c)
			continue
		}
		if c == ';' {
			b.WriteByte(c)
		}
		break
	}
	return b.String(), false
}

// startsEntity は'&'以降のwindowがデコードされるか、エンティティ残骸に一致するかを返す。
// 上限を超える連続は判定できないため開始とみなす。
func startsEntity(window string, truncated bool) bool {
	if truncated {
		return true
	}
	return html.UnescapeString(window) != window || entityResiduePrefix.MatchString(window)
}

func isEntityNameByte(c byte) bool {
	return c == '#' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// isTagStart はHTMLトークナイザーが'<'の直後にタグやコメントの開始とみなす文字かを返す。
func isTagStart(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || c == '!' || c == '/' || c == '?'
}
