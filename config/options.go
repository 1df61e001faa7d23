package config

import (
	"fmt"
	"slices"
)

type ArrowParens string

const (
	ArrowParensAlways ArrowParens = "always"
	ArrowParensAvoid  ArrowParens = "avoid"
)

type QuoteProps string

const (
	QuotePropsAsNeeded   QuoteProps = "as-needed"
	QuotePropsConsistent QuoteProps = "consistent"
	QuotePropsPreserve   QuoteProps = "preserve"
)

type TrailingComma string

const (
	TrailingCommaNone TrailingComma = "none"
	TrailingCommaES5  TrailingComma = "es5"
	TrailingCommaAll  TrailingComma = "all"
)

type EndOfLine string

const (
	EndOfLineLF   EndOfLine = "lf"
	EndOfLineCRLF EndOfLine = "crlf"
	EndOfLineCR   EndOfLine = "cr"
	EndOfLineAuto EndOfLine = "auto"
)

type ProseWrap string

const (
	ProseWrapAlways   ProseWrap = "always"
	ProseWrapNever    ProseWrap = "never"
	ProseWrapPreserve ProseWrap = "preserve"
)

type HTMLWhitespaceSensitivity string

const (
	HTMLWhitespaceCSS    HTMLWhitespaceSensitivity = "css"
	HTMLWhitespaceStrict HTMLWhitespaceSensitivity = "strict"
	HTMLWhitespaceIgnore HTMLWhitespaceSensitivity = "ignore"
)

type EmbeddedLanguageFormatting string

const (
	EmbeddedLanguageFormattingAuto EmbeddedLanguageFormatting = "auto"
	EmbeddedLanguageFormattingOff  EmbeddedLanguageFormatting = "off"
)

//nolint:gochecknoglobals
var (
	arrowParensValues    = []ArrowParens{ArrowParensAlways, ArrowParensAvoid}
	quotePropsValues     = []QuoteProps{QuotePropsAsNeeded, QuotePropsConsistent, QuotePropsPreserve}
	trailingCommaValues  = []TrailingComma{TrailingCommaNone, TrailingCommaES5, TrailingCommaAll}
	endOfLineValues      = []EndOfLine{EndOfLineLF, EndOfLineCRLF, EndOfLineCR, EndOfLineAuto}
	proseWrapValues      = []ProseWrap{ProseWrapAlways, ProseWrapNever, ProseWrapPreserve}
	htmlWhitespaceValues = []HTMLWhitespaceSensitivity{HTMLWhitespaceCSS, HTMLWhitespaceStrict, HTMLWhitespaceIgnore}
	embeddedValues       = []EmbeddedLanguageFormatting{EmbeddedLanguageFormattingAuto, EmbeddedLanguageFormattingOff}
)

// BuiltinParsers lists the parsers available without any plugin.
//
//nolint:gochecknoglobals
var BuiltinParsers = []string{
	"acorn", "angular", "babel", "babel-flow", "babel-ts", "css", "espree", "flow",
	"glimmer", "graphql", "html", "json", "json-stringify", "json5", "jsonc", "less",
	"lwc", "markdown", "mdx", "meriyah", "scss", "typescript", "vue", "yaml",
}

// Options is the set of formatting options understood by the formatter.
// A nil field means the option is not set, so the same type describes both the base options and the partial options
// of an override.
type Options struct {
	ArrowParens                *ArrowParens                `toml:"arrowParens,omitempty" yaml:"arrowParens,omitempty" json:"arrowParens,omitempty" msgpack:"arrowParens,omitempty"`
	BracketSameLine            *bool                       `toml:"bracketSameLine,omitempty" yaml:"bracketSameLine,omitempty" json:"bracketSameLine,omitempty" msgpack:"bracketSameLine,omitempty"`
	BracketSpacing             *bool                       `toml:"bracketSpacing,omitempty" yaml:"bracketSpacing,omitempty" json:"bracketSpacing,omitempty" msgpack:"bracketSpacing,omitempty"`
	EmbeddedLanguageFormatting *EmbeddedLanguageFormatting `toml:"embeddedLanguageFormatting,omitempty" yaml:"embeddedLanguageFormatting,omitempty" json:"embeddedLanguageFormatting,omitempty" msgpack:"embeddedLanguageFormatting,omitempty"`
	EndOfLine                  *EndOfLine                  `toml:"endOfLine,omitempty" yaml:"endOfLine,omitempty" json:"endOfLine,omitempty" msgpack:"endOfLine,omitempty"`
	HTMLWhitespaceSensitivity  *HTMLWhitespaceSensitivity  `toml:"htmlWhitespaceSensitivity,omitempty" yaml:"htmlWhitespaceSensitivity,omitempty" json:"htmlWhitespaceSensitivity,omitempty" msgpack:"htmlWhitespaceSensitivity,omitempty"`
	JSXSingleQuote             *bool                       `toml:"jsxSingleQuote,omitempty" yaml:"jsxSingleQuote,omitempty" json:"jsxSingleQuote,omitempty" msgpack:"jsxSingleQuote,omitempty"`
	Parser                     *string                     `toml:"parser,omitempty" yaml:"parser,omitempty" json:"parser,omitempty" msgpack:"parser,omitempty"`
	Plugins                    []string                    `toml:"plugins,omitempty" yaml:"plugins,omitempty" json:"plugins,omitempty" msgpack:"plugins"`
	PrintWidth                 *int                        `toml:"printWidth,omitempty" yaml:"printWidth,omitempty" json:"printWidth,omitempty" msgpack:"printWidth,omitempty"`
	ProseWrap                  *ProseWrap                  `toml:"proseWrap,omitempty" yaml:"proseWrap,omitempty" json:"proseWrap,omitempty" msgpack:"proseWrap,omitempty"`
	QuoteProps                 *QuoteProps                 `toml:"quoteProps,omitempty" yaml:"quoteProps,omitempty" json:"quoteProps,omitempty" msgpack:"quoteProps,omitempty"`
	Semi                       *bool                       `toml:"semi,omitempty" yaml:"semi,omitempty" json:"semi,omitempty" msgpack:"semi,omitempty"`
	SingleQuote                *bool                       `toml:"singleQuote,omitempty" yaml:"singleQuote,omitempty" json:"singleQuote,omitempty" msgpack:"singleQuote,omitempty"`
	TabWidth                   *int                        `toml:"tabWidth,omitempty" yaml:"tabWidth,omitempty" json:"tabWidth,omitempty" msgpack:"tabWidth,omitempty"`
	TrailingComma              *TrailingComma              `toml:"trailingComma,omitempty" yaml:"trailingComma,omitempty" json:"trailingComma,omitempty" msgpack:"trailingComma,omitempty"`
	UseTabs                    *bool                       `toml:"useTabs,omitempty" yaml:"useTabs,omitempty" json:"useTabs,omitempty" msgpack:"useTabs,omitempty"`
}

// Effective is Options as written out once resolution is done. It differs from Options only in that plugins are
// always encoded, even when empty.
type Effective struct {
	ArrowParens                *ArrowParens                `toml:"arrowParens,omitempty" yaml:"arrowParens,omitempty" json:"arrowParens,omitempty"`
	BracketSameLine            *bool                       `toml:"bracketSameLine,omitempty" yaml:"bracketSameLine,omitempty" json:"bracketSameLine,omitempty"`
	BracketSpacing             *bool                       `toml:"bracketSpacing,omitempty" yaml:"bracketSpacing,omitempty" json:"bracketSpacing,omitempty"`
	EmbeddedLanguageFormatting *EmbeddedLanguageFormatting `toml:"embeddedLanguageFormatting,omitempty" yaml:"embeddedLanguageFormatting,omitempty" json:"embeddedLanguageFormatting,omitempty"`
	EndOfLine                  *EndOfLine                  `toml:"endOfLine,omitempty" yaml:"endOfLine,omitempty" json:"endOfLine,omitempty"`
	HTMLWhitespaceSensitivity  *HTMLWhitespaceSensitivity  `toml:"htmlWhitespaceSensitivity,omitempty" yaml:"htmlWhitespaceSensitivity,omitempty" json:"htmlWhitespaceSensitivity,omitempty"`
	JSXSingleQuote             *bool                       `toml:"jsxSingleQuote,omitempty" yaml:"jsxSingleQuote,omitempty" json:"jsxSingleQuote,omitempty"`
	Parser                     *string                     `toml:"parser,omitempty" yaml:"parser,omitempty" json:"parser,omitempty"`
	Plugins                    []string                    `toml:"plugins" yaml:"plugins" json:"plugins"`
	PrintWidth                 *int                        `toml:"printWidth,omitempty" yaml:"printWidth,omitempty" json:"printWidth,omitempty"`
	ProseWrap                  *ProseWrap                  `toml:"proseWrap,omitempty" yaml:"proseWrap,omitempty" json:"proseWrap,omitempty"`
	QuoteProps                 *QuoteProps                 `toml:"quoteProps,omitempty" yaml:"quoteProps,omitempty" json:"quoteProps,omitempty"`
	Semi                       *bool                       `toml:"semi,omitempty" yaml:"semi,omitempty" json:"semi,omitempty"`
	SingleQuote                *bool                       `toml:"singleQuote,omitempty" yaml:"singleQuote,omitempty" json:"singleQuote,omitempty"`
	TabWidth                   *int                        `toml:"tabWidth,omitempty" yaml:"tabWidth,omitempty" json:"tabWidth,omitempty"`
	TrailingComma              *TrailingComma              `toml:"trailingComma,omitempty" yaml:"trailingComma,omitempty" json:"trailingComma,omitempty"`
	UseTabs                    *bool                       `toml:"useTabs,omitempty" yaml:"useTabs,omitempty" json:"useTabs,omitempty"`
}

// Effective converts o for output. Parser stays omitted when unset since it is inferred per file.
func (o Options) Effective() Effective {
	e := Effective(o)
	if e.Plugins == nil {
		e.Plugins = []string{}
	}

	return e
}

// Ptr returns a pointer to v. Handy when building Options in code.
func Ptr[T any](v T) *T {
	return &v
}

// Defaults returns the formatter's documented default for every option except parser, which it infers per file.
func Defaults() Options {
	return Options{
		ArrowParens:                Ptr(ArrowParensAlways),
		BracketSameLine:            Ptr(false),
		BracketSpacing:             Ptr(true),
		EmbeddedLanguageFormatting: Ptr(EmbeddedLanguageFormattingAuto),
		EndOfLine:                  Ptr(EndOfLineLF),
		HTMLWhitespaceSensitivity:  Ptr(HTMLWhitespaceCSS),
		JSXSingleQuote:             Ptr(false),
		Plugins:                    []string{},
		PrintWidth:                 Ptr(80),
		ProseWrap:                  Ptr(ProseWrapPreserve),
		QuoteProps:                 Ptr(QuotePropsAsNeeded),
		Semi:                       Ptr(true),
		SingleQuote:                Ptr(false),
		TabWidth:                   Ptr(2),
		TrailingComma:              Ptr(TrailingCommaAll),
		UseTabs:                    Ptr(false),
	}
}

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	c := Options{}
	c.Merge(o)

	return c
}

// Merge overwrites every option in o which is set in other.
func (o *Options) Merge(other Options) {
	mergePtr(&o.ArrowParens, other.ArrowParens)
	mergePtr(&o.BracketSameLine, other.BracketSameLine)
	mergePtr(&o.BracketSpacing, other.BracketSpacing)
	mergePtr(&o.EmbeddedLanguageFormatting, other.EmbeddedLanguageFormatting)
	mergePtr(&o.EndOfLine, other.EndOfLine)
	mergePtr(&o.HTMLWhitespaceSensitivity, other.HTMLWhitespaceSensitivity)
	mergePtr(&o.JSXSingleQuote, other.JSXSingleQuote)
	mergePtr(&o.Parser, other.Parser)
	mergePtr(&o.PrintWidth, other.PrintWidth)
	mergePtr(&o.ProseWrap, other.ProseWrap)
	mergePtr(&o.QuoteProps, other.QuoteProps)
	mergePtr(&o.Semi, other.Semi)
	mergePtr(&o.SingleQuote, other.SingleQuote)
	mergePtr(&o.TabWidth, other.TabWidth)
	mergePtr(&o.TrailingComma, other.TrailingComma)
	mergePtr(&o.UseTabs, other.UseTabs)

	// plugins are replaced wholesale, never appended
	if other.Plugins != nil {
		o.Plugins = slices.Clone(other.Plugins)
	}
}

// IsEmpty reports whether no option is set.
func (o Options) IsEmpty() bool {
	return o.ArrowParens == nil &&
		o.BracketSameLine == nil &&
		o.BracketSpacing == nil &&
		o.EmbeddedLanguageFormatting == nil &&
		o.EndOfLine == nil &&
		o.HTMLWhitespaceSensitivity == nil &&
		o.JSXSingleQuote == nil &&
		o.Parser == nil &&
		o.Plugins == nil &&
		o.PrintWidth == nil &&
		o.ProseWrap == nil &&
		o.QuoteProps == nil &&
		o.Semi == nil &&
		o.SingleQuote == nil &&
		o.TabWidth == nil &&
		o.TrailingComma == nil &&
		o.UseTabs == nil
}

func mergePtr[T any](dst **T, src *T) {
	if src == nil {
		return
	}

	v := *src
	*dst = &v
}

// validate checks every set option. Field names in errors are prefixed with prefix.
// plugins holds the plugins in effect, which may contribute parsers beyond the builtin ones.
func (o Options) validate(prefix string, plugins []string) error {
	if err := checkEnum(prefix+"arrowParens", o.ArrowParens, arrowParensValues); err != nil {
		return err
	}

	if err := checkEnum(prefix+"quoteProps", o.QuoteProps, quotePropsValues); err != nil {
		return err
	}

	if err := checkEnum(prefix+"trailingComma", o.TrailingComma, trailingCommaValues); err != nil {
		return err
	}

	if err := checkEnum(prefix+"endOfLine", o.EndOfLine, endOfLineValues); err != nil {
		return err
	}

	if err := checkEnum(prefix+"proseWrap", o.ProseWrap, proseWrapValues); err != nil {
		return err
	}

	if err := checkEnum(prefix+"htmlWhitespaceSensitivity", o.HTMLWhitespaceSensitivity, htmlWhitespaceValues); err != nil {
		return err
	}

	if err := checkEnum(prefix+"embeddedLanguageFormatting", o.EmbeddedLanguageFormatting, embeddedValues); err != nil {
		return err
	}

	if err := checkPositive(prefix+"printWidth", o.PrintWidth); err != nil {
		return err
	}

	if err := checkPositive(prefix+"tabWidth", o.TabWidth); err != nil {
		return err
	}

	for idx, plugin := range o.Plugins {
		if plugin == "" {
			return invalid(fmt.Sprintf("%splugins[%d]", prefix, idx), plugin, "plugin identifier must not be empty")
		}
	}

	if o.Parser != nil {
		parser := *o.Parser

		switch {
		case parser == "":
			return invalid(prefix+"parser", parser, "must not be empty")
		case slices.Contains(BuiltinParsers, parser):
		case len(plugins) > 0:
			// plugins may register additional parsers which we cannot enumerate
		default:
			return invalid(prefix+"parser", parser, "unknown parser and no plugins configured")
		}
	}

	return nil
}

func checkEnum[T ~string](field string, value *T, allowed []T) error {
	if value == nil || slices.Contains(allowed, *value) {
		return nil
	}

	return invalid(field, string(*value), fmt.Sprintf("must be one of %v", allowed))
}

func checkPositive(field string, value *int) error {
	if value == nil || *value > 0 {
		return nil
	}

	return invalid(field, *value, "must be greater than 0")
}
