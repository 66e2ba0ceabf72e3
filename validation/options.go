package validation

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultDialect is the meta-schema used for documents that declare no "$schema".
const DefaultDialect = "https://json-schema.org/draft/2020-12/schema"

type Option func(o *Options)

type Options struct {
	// Language localizes error messages.
	Language language.Tag
	// AssertFormat makes "format" an assertion rather than an annotation.
	AssertFormat bool
	// Dialect is the meta-schema assumed when a document declares none.
	Dialect string
}

// WithLanguage localizes error messages.
func WithLanguage(tag language.Tag) Option {
	return func(o *Options) {
		o.Language = tag
	}
}

// WithFormatAssertion makes instances fail validation on values not matching their "format".
func WithFormatAssertion() Option {
	return func(o *Options) {
		o.AssertFormat = true
	}
}

// WithDialect sets the meta-schema assumed for documents that declare no "$schema".
func WithDialect(dialect string) Option {
	return func(o *Options) {
		o.Dialect = dialect
	}
}

func NewOptions(opts ...Option) *Options {
	o := &Options{
		Language: language.English,
		Dialect:  DefaultDialect,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Options) printer() *message.Printer {
	return message.NewPrinter(o.Language)
}
