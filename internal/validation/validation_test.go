package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantError string
	}{
		{"最短の有効アドレス", "a@b.c", true, ""},
		{"一般的なアドレス", "jan.kowalski@example.pl", true, ""},
		{"前後の空白は許容", "  ola@example.com ", true, ""},
		{"空文字列", "", false, "Email jest wymagany"},
		{"空白のみ", "   ", false, "Email jest wymagany"},
		{"短すぎる", "a@b", false, "Email jest zbyt krótki"},
		{"長すぎる", strings.Repeat("a", 250) + "@b.pl", false, "Email jest zbyt długi"},
		{"@なし", "not-an-email", false, "Nieprawidłowy format email"},
		{"TLDなし", "user@example", false, "Nieprawidłowy format email"},
		{"空白を含む", "us er@example.com", false, "Nieprawidłowy format email"},
		{"@が2つ", "a@b@example.com", false, "Nieprawidłowy format email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateEmail(tt.input)
			if got.Valid != tt.wantValid {
				t.Errorf("ValidateEmail(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Error != tt.wantError {
				t.Errorf("ValidateEmail(%q).Error = %q, want %q", tt.input, got.Error, tt.wantError)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Jo", true},
		{"Łukasz Żółć", true},
		{"J", false},
		{"  J  ", false},
		{strings.Repeat("ż", 100), true},
		{strings.Repeat("ż", 101), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidateName(tt.input); got != tt.want {
			t.Errorf("ValidateName(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSanitizeComment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Piękne miejsce, polecam!", "Piękne miejsce, polecam!"},
		{"タグを除去", "<p>Hello <b>world</b></p>", "Hello world"},
		{"scriptは中身ごと除去", "<script>alert(1)</script>Nice trip report!", "Nice trip report!"},
		{"エスケープされたタグも除去", "&lt;b&gt;bold&lt;/b&gt; text", "bold text"},
		{"空白を正規化", "  many   \n spaces\t here ", "many spaces here"},
		{"アンパサンドは保持", "Tom &amp; Jerry", "Tom & Jerry"},
		{"属性付きタグ", `<a href="javascript:alert(1)" onclick="x()">link</a> text`, "link text"},
		{"空文字列", "", ""},
		{"タグのみ", "<br><hr/>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeComment(tt.input); got != tt.want {
				t.Errorf("SanitizeComment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeComment_Idempotent は2回適用しても結果が変わらないことを検証する。
func TestSanitizeComment_Idempotent(t *testing.T) {
	inputs := []string{
		"<p>Hello <b>world</b></p>",
		"&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;",
		"&amp;amp;amp;lt;i&amp;amp;amp;gt;deep",
		"a < b > c",
		"5 > 3 && 2 < 4",
		"<<script>script>alert(1)<</script>/script>",
		"&#60;img src=x onerror=alert(1)&#62;",
		"&lt hello &gt",
		"Zażółć gęślą jaźń",
		"\t\n  \r",
		"<style>body{}</style><!-- comment -->text",
		"&&&;;;",
		strings.Repeat("&x", 9) + strings.Repeat(";", 9) + " hello world",
		strings.Repeat("&x", 20) + strings.Repeat(";", 20) + " hello world",
		strings.Repeat("&amp;", 30) + "lt;b&gt;x",
		"&&amp;lt;b",
		"<&lt;b>tekst",
		"&<lt;ok",
		"B&B w Krakowie",
	}

	for _, in := range inputs {
		once := SanitizeComment(in)
		twice := SanitizeComment(once)
		if once != twice {
			t.Errorf("not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
		if strings.Contains(once, "<script") {
			t.Errorf("script tag survived for %q: %q", in, once)
		}
	}
}

func TestSanitizeComment_NoMarkupStartsRemain(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"深くネストした残骸", strings.Repeat("&x", 20) + strings.Repeat(";", 20) + " hello", strings.Repeat("x", 19) + strings.Repeat(";", 19) + " hello"},
		{"エンティティにならないアンパサンドは保持", "B&B w Krakowie", "B&B w Krakowie"},
		{"比較演算子は保持", "5 > 3 && 2 < 4", "5 > 3 && 2 < 4"},
		{"除去後に現れるタグ開始", "<&lt;b>tekst", "tekst"},
		{"長い英数字の連続の前のアンパサンド", "&" + strings.Repeat("a", 100), strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeComment(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeComment(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := SanitizeComment(got); again != got {
				t.Errorf("second pass changed %q to %q", got, again)
			}
		})
	}
}

func TestSanitizeComment_LargeNestedInput(t *testing.T) {
	in := strings.Repeat("&x", 16*1024) + strings.Repeat(";", 16*1024)
	once := SanitizeComment(in)
	if strings.Contains(once, "&") {
		t.Errorf("entity residue survived in %d-byte output", len(once))
	}
	if twice := SanitizeComment(once); twice != once {
		t.Error("not idempotent for large nested input")
	}
}

func TestRuneLen(t *testing.T) {
	if got := RuneLen("żółw"); got != 4 {
		t.Errorf("RuneLen = %d, want 4", got)
	}
}
