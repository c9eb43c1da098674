// Package validation は入力値の検証とサニタイズのための純粋関数を提供する。
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	emailMinLength = 5
	emailMaxLength = 254

	nameMinLength = 2
	nameMaxLength = 100
)

// emailPattern は local@domain.tld 形式のみを確認する簡易パターン。
// RFC 5322の完全な検証は行わない。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailResult はメールアドレス検証の結果。
type EmailResult struct {
	Valid bool
	Error string
}

// ValidateEmail はメールアドレスの形式を検証する。
// 明らかに不正な入力を弾くことが目的であり、到達可能性は確認しない。
func ValidateEmail(s string) EmailResult {
	email := strings.TrimSpace(s)
	if email == "" {
		return EmailResult{Error: "Email jest wymagany"}
	}
	if len(email) < emailMinLength {
		return EmailResult{Error: "Email jest zbyt krótki"}
	}
	if len(email) > emailMaxLength {
		return EmailResult{Error: "Email jest zbyt długi"}
	}
	if !emailPattern.MatchString(email) {
		return EmailResult{Error: "Nieprawidłowy format email"}
	}
	return EmailResult{Valid: true}
}

// ValidateName は投稿者名の長さ（2〜100文字）を検証する。
// 文字数はバイト数ではなくルーン数で数える。
func ValidateName(s string) bool {
	n := RuneLen(strings.TrimSpace(s))
	return n >= nameMinLength && n <= nameMaxLength
}

// RuneLen は文字列の文字数を返す。
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
