package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aafulei/atree/internal/types"
)

const (
	duplicatesKeyword         = "duplicates"
	nonemptyDuplicatesKeyword = "nonempty-duplicates"
	topKeywordPrefix          = "@top"
	nowKeyword                = "now"

	messageEmptyPredicate    = "empty predicate"
	messageExpectedAttribute = "expected attribute name (size, lines, mtime)"
	messageUnknownAttribute  = "unknown attribute %q"
	messageExpectedOperator  = "expected comparison operator"
	messageExpectedInteger   = "expected integer"
	messagePositiveTopCount  = "top count must be positive"
	messageExpectedSizeValue = "expected size value such as 4096 or 1.5m"
	messageExpectedNow       = "expected time value such as now-1week"
	messageExpectedSign      = "expected + or - after now"
	messageUnknownTimeUnit   = "unknown time unit %q"
	messageUnknownSizeUnit   = "unknown size unit %q"
	messageTrailingInput     = "unexpected trailing input"
)

// sizeUnitMultipliers maps the accepted size suffixes to byte multipliers.
var sizeUnitMultipliers = map[byte]int64{
	'b': 1,
	'k': 1 << 10,
	'm': 1 << 20,
	'g': 1 << 30,
	't': 1 << 40,
}

// timeUnitSpellings maps every accepted unit spelling to a canonical unit.
var timeUnitSpellings = map[string]string{
	"s": "second", "sec": "second", "secs": "second", "second": "second", "seconds": "second",
	"min": "minute", "mins": "minute", "minute": "minute", "minutes": "minute",
	"h": "hour", "hr": "hour", "hrs": "hour", "hour": "hour", "hours": "hour",
	"d": "day", "day": "day", "days": "day",
	"w": "week", "wk": "week", "wks": "week", "week": "week", "weeks": "week",
	"mo": "month", "mon": "month", "month": "month", "months": "month",
	"y": "year", "yr": "year", "yrs": "year", "year": "year", "years": "year",
}

// Compile parses a show-predicate and resolves relative-time literals against
// the provided instant. A malformed predicate yields a *SyntaxError and is
// never partially applied.
func Compile(input string, now time.Time) (*Query, error) {
	parser := &predicateParser{input: strings.TrimSpace(input), now: now}
	compiled, parseError := parser.parse()
	if parseError != nil {
		return nil, parseError
	}
	return compiled, nil
}

// predicateParser is a single-pass scanner over the predicate text.
type predicateParser struct {
	input    string
	position int
	now      time.Time
}

func (parser *predicateParser) parse() (*Query, *SyntaxError) {
	if parser.input == "" {
		return nil, parser.fail(messageEmptyPredicate)
	}

	switch parser.input {
	case duplicatesKeyword:
		return &Query{Kind: KindDuplicates, IncludeEmpty: true}, nil
	case nonemptyDuplicatesKeyword:
		return &Query{Kind: KindDuplicates, IncludeEmpty: false}, nil
	}

	attributeName, attributeError := parser.scanAttribute()
	if attributeError != nil {
		return nil, attributeError
	}

	if strings.HasPrefix(parser.rest(), topKeywordPrefix) {
		parser.position += len(topKeywordPrefix)
		topCount, countError := parser.scanInteger()
		if countError != nil {
			return nil, countError
		}
		if topCount <= 0 {
			return nil, parser.fail(messagePositiveTopCount)
		}
		if remainderError := parser.expectEnd(); remainderError != nil {
			return nil, remainderError
		}
		return &Query{Kind: KindTopN, TopN: &TopN{Attribute: attributeName, Count: int(topCount)}}, nil
	}

	operatorValue, operatorError := parser.scanOperator()
	if operatorError != nil {
		return nil, operatorError
	}

	var literalValue int64
	var literalError *SyntaxError
	switch attributeName {
	case types.AttributeLines:
		literalValue, literalError = parser.scanInteger()
	case types.AttributeSize:
		literalValue, literalError = parser.scanSizeLiteral()
	case types.AttributeModTime:
		literalValue, literalError = parser.scanTimeLiteral()
	}
	if literalError != nil {
		return nil, literalError
	}
	if remainderError := parser.expectEnd(); remainderError != nil {
		return nil, remainderError
	}

	return &Query{
		Kind: KindComparison,
		Comparison: &Comparison{
			Attribute: attributeName,
			Operator:  operatorValue,
			Value:     literalValue,
		},
	}, nil
}

func (parser *predicateParser) rest() string {
	return parser.input[parser.position:]
}

func (parser *predicateParser) fail(message string) *SyntaxError {
	return &SyntaxError{Position: parser.position, Message: message}
}

func (parser *predicateParser) scanAttribute() (string, *SyntaxError) {
	wordStart := parser.position
	for parser.position < len(parser.input) && isLetter(parser.input[parser.position]) {
		parser.position++
	}
	if parser.position == wordStart {
		return "", &SyntaxError{Position: wordStart, Message: messageExpectedAttribute}
	}
	attributeName := parser.input[wordStart:parser.position]
	if !types.IsKnownAttribute(attributeName) {
		return "", &SyntaxError{Position: wordStart, Message: fmt.Sprintf(messageUnknownAttribute, attributeName)}
	}
	return attributeName, nil
}

func (parser *predicateParser) scanOperator() (Operator, *SyntaxError) {
	remaining := parser.rest()
	for _, candidate := range []Operator{OperatorLessEqual, OperatorGreaterEqual, OperatorEqual, OperatorNotEqual, OperatorLess, OperatorGreater} {
		if strings.HasPrefix(remaining, string(candidate)) {
			parser.position += len(candidate)
			return candidate, nil
		}
	}
	return "", parser.fail(messageExpectedOperator)
}

func (parser *predicateParser) scanInteger() (int64, *SyntaxError) {
	digitStart := parser.position
	for parser.position < len(parser.input) && isDigit(parser.input[parser.position]) {
		parser.position++
	}
	if parser.position == digitStart {
		return 0, &SyntaxError{Position: digitStart, Message: messageExpectedInteger}
	}
	parsedValue, parseError := strconv.ParseInt(parser.input[digitStart:parser.position], 10, 64)
	if parseError != nil {
		return 0, &SyntaxError{Position: digitStart, Message: messageExpectedInteger}
	}
	return parsedValue, nil
}

// scanSizeLiteral accepts a plain byte count or a decimal number with a unit
// suffix, e.g. "4096", "1.5m", "2G".
func (parser *predicateParser) scanSizeLiteral() (int64, *SyntaxError) {
	numberStart := parser.position
	for parser.position < len(parser.input) && (isDigit(parser.input[parser.position]) || parser.input[parser.position] == '.') {
		parser.position++
	}
	if parser.position == numberStart {
		return 0, &SyntaxError{Position: numberStart, Message: messageExpectedSizeValue}
	}
	numberText := parser.input[numberStart:parser.position]

	if parser.position >= len(parser.input) || !isLetter(parser.input[parser.position]) {
		parsedValue, parseError := strconv.ParseInt(numberText, 10, 64)
		if parseError != nil {
			return 0, &SyntaxError{Position: numberStart, Message: messageExpectedSizeValue}
		}
		return parsedValue, nil
	}

	unitStart := parser.position
	parser.position++
	unitCharacter := lowerByte(parser.input[unitStart])
	multiplier, knownUnit := sizeUnitMultipliers[unitCharacter]
	if !knownUnit {
		return 0, &SyntaxError{Position: unitStart, Message: fmt.Sprintf(messageUnknownSizeUnit, string(parser.input[unitStart]))}
	}
	parsedNumber, parseError := strconv.ParseFloat(numberText, 64)
	if parseError != nil {
		return 0, &SyntaxError{Position: numberStart, Message: messageExpectedSizeValue}
	}
	return int64(parsedNumber * float64(multiplier)), nil
}

// scanTimeLiteral accepts "now" optionally followed by a signed duration such
// as "now-1week" or "now+3days". The offset is applied to the parser's single
// compile-time instant and the result is returned in Unix nanoseconds.
func (parser *predicateParser) scanTimeLiteral() (int64, *SyntaxError) {
	if !strings.HasPrefix(parser.rest(), nowKeyword) {
		return 0, parser.fail(messageExpectedNow)
	}
	parser.position += len(nowKeyword)
	if parser.position == len(parser.input) {
		return parser.now.UnixNano(), nil
	}

	signCharacter := parser.input[parser.position]
	if signCharacter != '-' && signCharacter != '+' {
		return 0, parser.fail(messageExpectedSign)
	}
	parser.position++
	negative := signCharacter == '-'

	amount, amountError := parser.scanInteger()
	if amountError != nil {
		return 0, amountError
	}

	unitStart := parser.position
	for parser.position < len(parser.input) && isLetter(parser.input[parser.position]) {
		parser.position++
	}
	unitText := strings.ToLower(parser.input[unitStart:parser.position])
	canonicalUnit, knownUnit := timeUnitSpellings[unitText]
	if !knownUnit {
		return 0, &SyntaxError{Position: unitStart, Message: fmt.Sprintf(messageUnknownTimeUnit, unitText)}
	}

	if negative {
		amount = -amount
	}
	return applyTimeOffset(parser.now, canonicalUnit, amount).UnixNano(), nil
}

// applyTimeOffset shifts the instant by the given amount of the canonical
// unit. Months and years use calendar arithmetic so "now-1month" lands on the
// same day of the previous month.
func applyTimeOffset(instant time.Time, canonicalUnit string, amount int64) time.Time {
	switch canonicalUnit {
	case "second":
		return instant.Add(time.Duration(amount) * time.Second)
	case "minute":
		return instant.Add(time.Duration(amount) * time.Minute)
	case "hour":
		return instant.Add(time.Duration(amount) * time.Hour)
	case "day":
		return instant.Add(time.Duration(amount) * 24 * time.Hour)
	case "week":
		return instant.Add(time.Duration(amount) * 7 * 24 * time.Hour)
	case "month":
		return instant.AddDate(0, int(amount), 0)
	case "year":
		return instant.AddDate(int(amount), 0, 0)
	default:
		return instant
	}
}

func (parser *predicateParser) expectEnd() *SyntaxError {
	if parser.position != len(parser.input) {
		return parser.fail(messageTrailingInput)
	}
	return nil
}

func isLetter(character byte) bool {
	return (character >= 'a' && character <= 'z') || (character >= 'A' && character <= 'Z')
}

func isDigit(character byte) bool {
	return character >= '0' && character <= '9'
}

func lowerByte(character byte) byte {
	if character >= 'A' && character <= 'Z' {
		return character + ('a' - 'A')
	}
	return character
}
