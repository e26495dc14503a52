package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractShownText(t *testing.T) {
	content := "BT /F1 12 Tf (Hello) Tj [ (Wor) -20 (ld) ] TJ ET"

	assert.Equal(t, "Hello World ", extractShownText(content))
}

func TestExtractShownTextIgnoresNonShowStrings(t *testing.T) {
	// The string is an operand of a non-showing operator and must not leak
	// into the output.
	content := "(ignored) Tz (shown) Tj"

	assert.Equal(t, "shown ", extractShownText(content))
}

func TestExtractShownTextEscapes(t *testing.T) {
	content := `(a\(b\)c) Tj (line\nbreak) Tj (\101) Tj`

	assert.Equal(t, "a(b)c line\nbreak A ", extractShownText(content))
}

func TestExtractShownTextQuoteOperator(t *testing.T) {
	content := "(next line) ' (quoted) Tj"

	assert.Equal(t, "next line quoted ", extractShownText(content))
}

func TestExtractShownTextHexStrings(t *testing.T) {
	content := "<48656C6C6F> Tj [ <576F> -20 <726C64> ] TJ"

	assert.Equal(t, "Hello World ", extractShownText(content))
}

func TestExtractShownTextHexOddDigitAndWhitespace(t *testing.T) {
	// An odd trailing digit reads as if padded with 0; whitespace between
	// digit pairs is allowed.
	content := "<48 65 6C 6C 6F 4> Tj"

	assert.Equal(t, "Hello@ ", extractShownText(content))
}

func TestExtractShownTextSkipsDictionaries(t *testing.T) {
	content := "<< /Length 42 >> stream (shown) Tj"

	assert.Equal(t, "shown ", extractShownText(content))
}

func TestReadLiteralStringNested(t *testing.T) {
	s, next := readLiteralString("(outer (inner) tail) Tj", 0)

	assert.Equal(t, "outer (inner) tail", s)
	assert.Equal(t, 20, next)
}
