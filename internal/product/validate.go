package product

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError is a client input rejection. The value is the reason
// reported back to the caller.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	ErrNameRequired ValidationError = "Product name is required"
	ErrNameCharset  ValidationError = "Product name can only contain English letters and spaces"
	ErrPriceMissing ValidationError = "Price is required"
	ErrPriceCharset ValidationError = "Price can only contain numbers and decimal point"
	ErrPriceRange   ValidationError = "Valid price greater than 0 is required"
)

var (
	namePattern  = regexp.MustCompile(`^[A-Za-z ]+$`)
	pricePattern = regexp.MustCompile(`^[0-9.]+$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "letters_spaces", namePattern)
	mustRegister(v, "price_chars", pricePattern)
	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Input is a product candidate that passed Validate.
type Input struct {
	Name  string
	Price float64
}

// Validate checks a raw name and price as decoded from a request body.
// Checks run in a fixed order and the first failure is returned.
//
// A name or price that is missing, null, false, "" or numeric zero counts
// as not provided; for price the string "0" does too. Other zero spellings
// such as "0.0" get past that check and fail the range check instead.
func Validate(rawName, rawPrice any) (Input, error) {
	name, err := checkName(rawName)
	if err != nil {
		return Input{}, err
	}

	text, ok := priceText(rawPrice)
	if !ok {
		return Input{}, ErrPriceMissing
	}
	if validate.Var(text, "price_chars") != nil {
		return Input{}, ErrPriceCharset
	}

	price, err := leadingFloat(text)
	if err != nil || validate.Var(price, "gt=0") != nil {
		return Input{}, ErrPriceRange
	}

	return Input{Name: name, Price: price}, nil
}

func checkName(raw any) (string, error) {
	if isFalsy(raw) {
		return "", ErrNameRequired
	}
	s, ok := raw.(string)
	if !ok {
		return "", ErrNameCharset
	}

	s = strings.TrimSpace(s)
	if validate.Var(s, "required") != nil {
		return "", ErrNameRequired
	}
	if validate.Var(s, "letters_spaces") != nil {
		return "", ErrNameCharset
	}
	return s, nil
}

// priceText renders a raw price as the text the character check runs on.
// ok is false when the price counts as not provided.
func priceText(raw any) (text string, ok bool) {
	if isFalsy(raw) || raw == "0" {
		return "", false
	}
	return valueText(raw), true
}

// isFalsy reports the values a body field is treated as absent for:
// missing, null, false, "" and numeric zero.
func isFalsy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	case float64:
		return v == 0
	case int:
		return v == 0
	case int64:
		return v == 0
	default:
		return false
	}
}

// valueText renders a decoded JSON value the way a JavaScript String()
// conversion would: arrays join their elements with commas, objects
// become "[object Object]".
func valueText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return numberText(f)
	case float64:
		return numberText(v)
	case int:
		return numberText(float64(v))
	case int64:
		return numberText(float64(v))
	case []any:
		parts := make([]string, len(v))
		for i, el := range v {
			parts[i] = valueText(el)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return fmt.Sprint(v)
	}
}

// numberText switches to exponent notation outside [1e-6, 1e21), e.g.
// "1e+21" and "1.5e-7".
func numberText(f float64) string {
	if abs := math.Abs(f); f != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		return expZeros.Replace(s)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var expZeros = strings.NewReplacer("e+0", "e+", "e-0", "e-")

// leadingFloat parses the longest numeric prefix of s, which holds only
// digits and dots: "1.2.3" reads as 1.2, "5." as 5.
func leadingFloat(s string) (float64, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if j := strings.IndexByte(s[i+1:], '.'); j >= 0 {
			s = s[:i+1+j]
		}
	}
	return strconv.ParseFloat(s, 64)
}
