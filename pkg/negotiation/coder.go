package negotiation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coolbeans/kmdp/pkg/registry"
	"github.com/coolbeans/kmdp/pkg/surrogate"
)

// ModelType is the top-level type of model MIME codes.
const ModelType = "model"

var (
	// ErrUnknownLanguage is returned for languages or codes missing from the registry.
	ErrUnknownLanguage = errors.New("unknown representation language")

	// ErrUnknownFormat is returned for formats or codes missing from the registry.
	ErrUnknownFormat = errors.New("unknown serialization format")

	// ErrUnknownLexicon is returned for lexicons or codes missing from the registry.
	ErrUnknownLexicon = errors.New("unknown lexicon")

	// ErrMalformedCode is returned for codes that are not model MIME codes.
	ErrMalformedCode = errors.New("malformed model mime code")
)

// Coder maps syntactic representations to model MIME codes such as
// "model/dmn-v12+xml;charset=UTF-8".
type Coder struct {
	registry *registry.Registry
}

// NewCoder creates a Coder over a loaded registry.
func NewCoder(reg *registry.Registry) *Coder {
	return &Coder{registry: reg}
}

// Encode renders the MIME code of a representation.
func (c *Coder) Encode(rep surrogate.SyntacticRepresentation) (string, error) {
	language, ok := c.registry.Language(rep.Language)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, rep.Language)
	}

	var b strings.Builder
	b.WriteString(ModelType + "/" + language.Code)

	if rep.Format != "" {
		format, ok := c.registry.Format(rep.Format)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownFormat, rep.Format)
		}
		b.WriteString("+" + format.Code)
	}

	if rep.Profile != "" {
		b.WriteString(";profile=" + rep.Profile)
	}
	if rep.Serialization != "" {
		b.WriteString(";ser=" + rep.Serialization)
	}
	if len(rep.Lexicon) > 0 {
		codes := make([]string, len(rep.Lexicon))
		for i, tag := range rep.Lexicon {
			lexicon, ok := c.registry.Lexicon(tag)
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrUnknownLexicon, tag)
			}
			codes[i] = lexicon.Code
		}
		b.WriteString(";lex={" + strings.Join(codes, "+") + "}")
	}
	if rep.Charset != "" {
		b.WriteString(";charset=" + rep.Charset)
	}
	if rep.Encoding != "" {
		b.WriteString(";enc=" + rep.Encoding)
	}

	return b.String(), nil
}

// Decode parses a model MIME code back into a representation.
func (c *Coder) Decode(code string) (surrogate.SyntacticRepresentation, error) {
	var rep surrogate.SyntacticRepresentation

	parts := strings.Split(strings.TrimSpace(code), ";")
	mediaType, subType, found := strings.Cut(parts[0], "/")
	if !found || !strings.EqualFold(mediaType, ModelType) || subType == "" {
		return rep, fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}

	languageCode, formatCode, hasFormat := strings.Cut(subType, "+")
	language, ok := c.registry.LanguageByCode(languageCode)
	if !ok {
		return rep, fmt.Errorf("%w: code %q", ErrUnknownLanguage, languageCode)
	}
	rep.Language = language.Tag

	if hasFormat {
		format, ok := c.registry.FormatByCode(formatCode)
		if !ok {
			return rep, fmt.Errorf("%w: code %q", ErrUnknownFormat, formatCode)
		}
		rep.Format = format.Tag
	}

	for _, param := range parts[1:] {
		key, value, found := strings.Cut(strings.TrimSpace(param), "=")
		if !found {
			return rep, fmt.Errorf("%w: parameter %q", ErrMalformedCode, param)
		}
		switch strings.ToLower(key) {
		case "profile":
			rep.Profile = value
		case "ser":
			rep.Serialization = value
		case "lex":
			lexicons, err := c.lexicons(value)
			if err != nil {
				return rep, err
			}
			rep.Lexicon = lexicons
		case "charset":
			rep.Charset = value
		case "enc":
			rep.Encoding = value
		}
	}

	return rep, nil
}

func (c *Coder) lexicons(value string) ([]string, error) {
	value = strings.TrimSuffix(strings.TrimPrefix(value, "{"), "}")
	if value == "" {
		return nil, nil
	}
	codes := strings.Split(value, "+")
	tags := make([]string, len(codes))
	for i, code := range codes {
		lexicon, ok := c.registry.LexiconByCode(code)
		if !ok {
			return nil, fmt.Errorf("%w: code %q", ErrUnknownLexicon, code)
		}
		tags[i] = lexicon.Tag
	}
	return tags, nil
}

// Negotiate picks the offered representation preferred by the Accept
// header. Offers that cannot be encoded are skipped.
func (c *Coder) Negotiate(accept string, offered []surrogate.SyntacticRepresentation) (surrogate.SyntacticRepresentation, error) {
	codes := make([]string, 0, len(offered))
	reps := make(map[string]surrogate.SyntacticRepresentation, len(offered))
	for _, rep := range offered {
		code, err := c.Encode(rep)
		if err != nil {
			continue
		}
		if _, dup := reps[code]; !dup {
			codes = append(codes, code)
			reps[code] = rep
		}
	}

	chosen, err := Negotiate(accept, codes)
	if err != nil {
		return surrogate.SyntacticRepresentation{}, err
	}
	return reps[chosen], nil
}
