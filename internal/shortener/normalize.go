package shortener

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	// MinLength and MaxLength bound raw and canonical URLs: [MinLength, MaxLength).
	MinLength = 3
	MaxLength = 2048

	defaultScheme = "https://"
)

var (
	schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)
	validate     = validator.New()
)

// Default ports per scheme. Schemes listed here also get "/" for an empty path.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"ws":    "80",
	"wss":   "443",
	"ftp":   "21",
}

// Normalize validates raw user input and returns its canonical absolute URL.
//   - Length is checked before parsing
//   - A missing scheme is inferred as https
//   - Scheme and host are lowercased
//   - Default ports are removed
//   - An empty path becomes "/" for special schemes
func Normalize(input string) (string, error) {
	if err := checkLength(input); err != nil {
		return "", err
	}

	if strings.IndexFunc(input, unicode.IsSpace) >= 0 {
		return "", invalidURL(input)
	}

	hasScheme := false
	if loc := schemePrefix.FindStringIndex(input); loc != nil {
		if loc[1] == len(input) {
			return "", invalidURL(input)
		}

		hasScheme = true
	}

	u, ok := parseAbsolute(input)
	if !ok && !hasScheme {
		u, ok = parseAbsolute(defaultScheme + input)
	}

	if !ok {
		return "", invalidURL(input)
	}

	canonical := canonicalize(u)
	if err := checkLength(canonical); err != nil {
		return "", err
	}

	return canonical, nil
}

func checkLength(s string) error {
	n := utf8.RuneCountInString(s)

	switch {
	case n < MinLength:
		return &ValidationError{Input: s, Limit: MinLength, Err: ErrLinkTooShort}
	case n >= MaxLength:
		return &ValidationError{Input: s, Limit: MaxLength, Err: ErrLinkTooLong}
	default:
		return nil
	}
}

func invalidURL(input string) error {
	return &ValidationError{Input: input, Err: ErrNotValidURL}
}

func parseAbsolute(raw string) (*url.URL, bool) {
	if err := validate.Var(raw, "url"); err != nil {
		return nil, false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return nil, false
	}

	return u, true
}

func canonicalize(u *url.URL) string {
	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	defaultPort, special := defaultPorts[u.Scheme]
	if port := u.Port(); port != "" && port != defaultPort {
		host += ":" + port
	}

	u.Host = host

	if special && u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	return u.String()
}
