package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the value type of a column, inferred from its non-empty cells.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Infer picks the narrowest kind every non-empty value parses as. A column
// with no values is a string column.
func Infer(values []string) Kind {
	isInt, isFloat, isBool := true, true, true
	seen := false
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen = true
		if isInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if _, err := parseBool(v); err != nil {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return KindString
		}
	}
	switch {
	case !seen:
		return KindString
	case isInt:
		return KindInt
	case isFloat:
		return KindFloat
	case isBool:
		return KindBool
	default:
		return KindString
	}
}

// Coerce casts s to kind and returns its canonical text form.
func Coerce(s string, kind Kind) (string, error) {
	v := strings.TrimSpace(s)
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return s, fmt.Errorf("cannot cast %q to %s", s, kind)
		}
		return strconv.FormatInt(n, 10), nil
	case KindFloat:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("cannot cast %q to %s", s, kind)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case KindBool:
		b, err := parseBool(v)
		if err != nil {
			return s, fmt.Errorf("cannot cast %q to %s", s, kind)
		}
		return strconv.FormatBool(b), nil
	default:
		return s, nil
	}
}

// parseBool accepts only the spellings spreadsheets emit; "1" and "0" are
// left to the numeric kinds.
func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", v)
}
