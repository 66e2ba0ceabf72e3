// Package schema contains the JSON Schema node hierarchy used by the generator.
//
// Every node implements Schema. Single-type nodes own a fixed type discriminator and a set of
// keywords grouped for output ordering, while UnionSchema owns an ordered list of constituents
// and forwards keyword operations it does not own itself to them.
package schema

import (
	"slices"
	"strings"
)

// DataType is the value of the JSON Schema "type" keyword.
type DataType string

const (
	TypeNull    DataType = "null"
	TypeBoolean DataType = "boolean"
	TypeInteger DataType = "integer"
	TypeNumber  DataType = "number"
	TypeString  DataType = "string"
	TypeArray   DataType = "array"
	TypeObject  DataType = "object"
)

// DataTypes lists every supported DataType.
var DataTypes = []DataType{TypeNull, TypeBoolean, TypeInteger, TypeNumber, TypeString, TypeArray, TypeObject}

// ParseDataType returns the DataType named by s.
func ParseDataType(s string) (DataType, bool) {
	dt := DataType(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(DataTypes, dt) {
		return "", false
	}
	return dt, true
}

// KeywordGroup orders keywords in rendered output. It has no other effect.
type KeywordGroup int

const (
	GroupAnnotation KeywordGroup = iota
	GroupGeneral
	GroupTypeSpecific
	GroupComposition

	groupCount
)

func (g KeywordGroup) String() string {
	switch g {
	case GroupAnnotation:
		return "annotation"
	case GroupGeneral:
		return "general"
	case GroupTypeSpecific:
		return "type-specific"
	case GroupComposition:
		return "composition"
	default:
		return "unknown"
	}
}

// Keyword names.
const (
	KeywordSchema = "$schema"
	KeywordRef    = "$ref"
	KeywordDefs   = "$defs"
	KeywordType   = "type"

	KeywordTitle       = "title"
	KeywordDescription = "description"
	KeywordDefault     = "default"
	KeywordExamples    = "examples"
	KeywordDeprecated  = "deprecated"
	KeywordReadOnly    = "readOnly"
	KeywordWriteOnly   = "writeOnly"
	KeywordComment     = "$comment"

	KeywordConst = "const"
	KeywordEnum  = "enum"

	KeywordMinLength        = "minLength"
	KeywordMaxLength        = "maxLength"
	KeywordPattern          = "pattern"
	KeywordFormat           = "format"
	KeywordContentEncoding  = "contentEncoding"
	KeywordContentMediaType = "contentMediaType"

	KeywordMinimum          = "minimum"
	KeywordMaximum          = "maximum"
	KeywordExclusiveMinimum = "exclusiveMinimum"
	KeywordExclusiveMaximum = "exclusiveMaximum"
	KeywordMultipleOf       = "multipleOf"

	KeywordItems       = "items"
	KeywordPrefixItems = "prefixItems"
	KeywordContains    = "contains"
	KeywordMinContains = "minContains"
	KeywordMaxContains = "maxContains"
	KeywordMinItems    = "minItems"
	KeywordMaxItems    = "maxItems"
	KeywordUniqueItems = "uniqueItems"

	KeywordProperties           = "properties"
	KeywordRequired             = "required"
	KeywordAdditionalProperties = "additionalProperties"
	KeywordPatternProperties    = "patternProperties"
	KeywordPropertyNames        = "propertyNames"
	KeywordMinProperties        = "minProperties"
	KeywordMaxProperties        = "maxProperties"
	KeywordDependentRequired    = "dependentRequired"

	KeywordAllOf = "allOf"
	KeywordAnyOf = "anyOf"
	KeywordOneOf = "oneOf"
	KeywordNot   = "not"
)

type keywordInfo struct {
	group KeywordGroup
	// types restricts type-specific keywords to the listed data types.
	types []DataType
}

var (
	numericTypes = []DataType{TypeInteger, TypeNumber}
	stringTypes  = []DataType{TypeString}
	arrayTypes   = []DataType{TypeArray}
	objectTypes  = []DataType{TypeObject}
)

var keywordCatalog = map[string]keywordInfo{
	KeywordTitle:       {group: GroupAnnotation},
	KeywordDescription: {group: GroupAnnotation},
	KeywordDefault:     {group: GroupAnnotation},
	KeywordExamples:    {group: GroupAnnotation},
	KeywordDeprecated:  {group: GroupAnnotation},
	KeywordReadOnly:    {group: GroupAnnotation},
	KeywordWriteOnly:   {group: GroupAnnotation},
	KeywordComment:     {group: GroupAnnotation},

	KeywordConst: {group: GroupGeneral},
	KeywordEnum:  {group: GroupGeneral},

	KeywordMinLength:        {group: GroupTypeSpecific, types: stringTypes},
	KeywordMaxLength:        {group: GroupTypeSpecific, types: stringTypes},
	KeywordPattern:          {group: GroupTypeSpecific, types: stringTypes},
	KeywordFormat:           {group: GroupTypeSpecific, types: stringTypes},
	KeywordContentEncoding:  {group: GroupTypeSpecific, types: stringTypes},
	KeywordContentMediaType: {group: GroupTypeSpecific, types: stringTypes},

	KeywordMinimum:          {group: GroupTypeSpecific, types: numericTypes},
	KeywordMaximum:          {group: GroupTypeSpecific, types: numericTypes},
	KeywordExclusiveMinimum: {group: GroupTypeSpecific, types: numericTypes},
	KeywordExclusiveMaximum: {group: GroupTypeSpecific, types: numericTypes},
	KeywordMultipleOf:       {group: GroupTypeSpecific, types: numericTypes},

	KeywordItems:       {group: GroupTypeSpecific, types: arrayTypes},
	KeywordPrefixItems: {group: GroupTypeSpecific, types: arrayTypes},
	KeywordContains:    {group: GroupTypeSpecific, types: arrayTypes},
	KeywordMinContains: {group: GroupTypeSpecific, types: arrayTypes},
	KeywordMaxContains: {group: GroupTypeSpecific, types: arrayTypes},
	KeywordMinItems:    {group: GroupTypeSpecific, types: arrayTypes},
	KeywordMaxItems:    {group: GroupTypeSpecific, types: arrayTypes},
	KeywordUniqueItems: {group: GroupTypeSpecific, types: arrayTypes},

	KeywordProperties:           {group: GroupTypeSpecific, types: objectTypes},
	KeywordRequired:             {group: GroupTypeSpecific, types: objectTypes},
	KeywordAdditionalProperties: {group: GroupTypeSpecific, types: objectTypes},
	KeywordPatternProperties:    {group: GroupTypeSpecific, types: objectTypes},
	KeywordPropertyNames:        {group: GroupTypeSpecific, types: objectTypes},
	KeywordMinProperties:        {group: GroupTypeSpecific, types: objectTypes},
	KeywordMaxProperties:        {group: GroupTypeSpecific, types: objectTypes},
	KeywordDependentRequired:    {group: GroupTypeSpecific, types: objectTypes},

	KeywordAllOf: {group: GroupComposition},
	KeywordAnyOf: {group: GroupComposition},
	KeywordOneOf: {group: GroupComposition},
	KeywordNot:   {group: GroupComposition},
}

// lookupKeyword returns what is known about a keyword. Vendor extensions ("x-" prefixed) are annotations.
func lookupKeyword(name string) (keywordInfo, bool) {
	if kw, ok := keywordCatalog[name]; ok {
		return kw, true
	}
	if strings.HasPrefix(name, "x-") && len(name) > 2 {
		return keywordInfo{group: GroupAnnotation}, true
	}
	return keywordInfo{}, false
}

// GroupOf returns the group a keyword is rendered in.
func GroupOf(name string) (KeywordGroup, bool) {
	kw, ok := lookupKeyword(name)
	return kw.group, ok
}

// IsAnnotation reports whether the keyword only documents a schema without constraining it.
func IsAnnotation(name string) bool {
	kw, ok := lookupKeyword(name)
	return ok && kw.group == GroupAnnotation
}
