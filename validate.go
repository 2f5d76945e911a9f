package textformat

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/transform"
)

// ValidationPolicy selects what happens to invalid UTF-8 found in printed
// strings.
type ValidationPolicy int

const (
	// ValidationReplace substitutes every invalid sequence with the
	// validator's replacement string.
	ValidationReplace ValidationPolicy = iota
	// ValidationFail aborts on the first invalid sequence.
	ValidationFail
	// ValidationIgnore drops invalid sequences.
	ValidationIgnore
)

// DefaultReplacement is the Unicode replacement character.
const DefaultReplacement = "\uFFFD"

var policyNames = map[ValidationPolicy]string{
	ValidationReplace: "replace",
	ValidationFail:    "fail",
	ValidationIgnore:  "ignore",
}

// String returns the policy name as accepted by [ParseValidationPolicy].
func (p ValidationPolicy) String() string {
	if s, ok := policyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("ValidationPolicy(%d)", int(p))
}

// ParseValidationPolicy parses "fail", "replace" or "ignore".
func ParseValidationPolicy(s string) (ValidationPolicy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidOption, "string validation mode %q", s)
}

// Validator checks and sanitizes UTF-8 text before it is emitted.
//
// Under ValidationReplace an empty Replacement means DefaultReplacement.
type Validator struct {
	Policy      ValidationPolicy
	Replacement string
}

func (v Validator) replacement() string {
	if v.Replacement == "" {
		return DefaultReplacement
	}
	return v.Replacement
}

// Check reports whether the replacement string is itself valid.
func (v Validator) Check() error {
	r := v.Replacement
	for i := 0; i < len(r); {
		n, ok, _ := nextSequence(r[i:])
		if !ok {
			return errors.Wrapf(ErrInvalidEncoding, "sequence %s in replacement %q", hexBytes(r[i:i+n]), r)
		}
		i += n
	}
	return nil
}

// Validate returns s with invalid sequences handled according to the policy,
// together with the number of invalid sequences found. Under ValidationFail
// the first invalid sequence yields an error wrapping [ErrInvalidEncoding]
// and no output.
func (v Validator) Validate(s string) (string, int, error) {
	if validString(s) {
		return s, 0, nil
	}
	t := &validatingTransformer{v: v}
	out, _, err := transform.String(t, s)
	if err != nil {
		return "", t.invalid, err
	}
	return out, t.invalid, nil
}

// Transformer returns a transformer applying the validator to a byte stream.
func (v Validator) Transformer() transform.Transformer {
	return &validatingTransformer{v: v}
}

type validatingTransformer struct {
	v       Validator
	invalid int
}

func (t *validatingTransformer) Reset() { t.invalid = 0 }

func (t *validatingTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		n, ok, short := nextSequence(src[nSrc:])
		if short && !atEOF {
			return nDst, nSrc, transform.ErrShortSrc
		}
		if ok {
			if nDst+n > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += copy(dst[nDst:], src[nSrc:nSrc+n])
			nSrc += n
			continue
		}
		switch t.v.Policy {
		case ValidationFail:
			return nDst, nSrc, errors.Wrapf(ErrInvalidEncoding, "sequence %s", hexBytes(src[nSrc:nSrc+n]))
		case ValidationReplace:
			r := t.v.replacement()
			if nDst+len(r) > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += copy(dst[nDst:], r)
		}
		t.invalid++
		nSrc += n
	}
	return nDst, nSrc, nil
}

func validString(s string) bool {
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			i++
			continue
		}
		n, ok, _ := nextSequence(s[i:])
		if !ok {
			return false
		}
		i += n
	}
	return true
}

// seqLen returns the length of the structure introduced by lead byte b, or 0
// when b cannot start a sequence.
func seqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	case b < 0xF8:
		return 4
	}
	return 0
}

var minRune = [...]rune{0, 0, 0x80, 0x800, 0x10000}

// nextSequence decodes the leading sequence of p, which must be non-empty.
// It returns the number of bytes the sequence spans and whether it is valid.
// short reports that p ended inside a multi-byte structure; in that case n
// covers all of p.
func nextSequence[T string | []byte](p T) (n int, ok, short bool) {
	size := seqLen(p[0])
	switch size {
	case 0:
		return 1, false, false
	case 1:
		return 1, true, false
	}
	r := rune(p[0]) & (0x7F >> size)
	i := 1
	for ; i < size && i < len(p); i++ {
		c := p[i]
		if c&0xC0 != 0x80 {
			return 1, false, false
		}
		r = r<<6 | rune(c&0x3F)
	}
	if i < size {
		return i, false, true
	}
	switch {
	case r < minRune[size], r > utf8.MaxRune:
		return size, false, false
	case r >= 0xD800 && r <= 0xDFFF:
		return size, false, false
	case r == 0xFFFE || r == 0xFFFF:
		return size, false, false
	}
	return size, true, false
}

func hexBytes[T string | []byte](p T) string {
	var sb strings.Builder
	sb.WriteString("0X")
	for i := 0; i < len(p); i++ {
		fmt.Fprintf(&sb, "%02X", p[i])
	}
	return sb.String()
}
