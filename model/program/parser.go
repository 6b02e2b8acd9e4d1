package program

import (
	"fmt"
	"strconv"

	"github.com/viant/parsly"
)

// ParseStep parses the compact step syntax:
//
//	call(arg, ...) [== expect] [* repeat]
//
// Numbers are decimal or 0x-prefixed hex and may be negative.
func ParseStep(text string) (*Step, error) {
	cursor := parsly.NewCursor("", []byte(text), 0)
	step := &Step{}

	matched := cursor.MatchAfterOptional(whitespaceToken, identifierToken)
	if matched.Code != identifierCode {
		return nil, cursor.NewError(identifierToken)
	}
	step.Call = matched.Text(cursor)

	matched = cursor.MatchAfterOptional(whitespaceToken, openParenToken)
	if matched.Code != openParenCode {
		return nil, cursor.NewError(openParenToken)
	}

	matched = cursor.MatchAfterOptional(whitespaceToken, numberToken, closeParenToken)
	for matched.Code == numberCode {
		value, err := ParseInt(matched.Text(cursor))
		if err != nil {
			return nil, err
		}
		step.Args = append(step.Args, value)
		matched = cursor.MatchAfterOptional(whitespaceToken, commaToken, closeParenToken)
		switch matched.Code {
		case commaCode:
			matched = cursor.MatchAfterOptional(whitespaceToken, numberToken)
			if matched.Code != numberCode {
				return nil, cursor.NewError(numberToken)
			}
		case closeParenCode:
		default:
			return nil, cursor.NewError(commaToken, closeParenToken)
		}
	}
	if matched.Code != closeParenCode {
		return nil, cursor.NewError(numberToken, closeParenToken)
	}

	matched = cursor.MatchAfterOptional(whitespaceToken, equalsToken, timesToken)
	if matched.Code == equalsCode {
		matched = cursor.MatchAfterOptional(whitespaceToken, numberToken)
		if matched.Code != numberCode {
			return nil, cursor.NewError(numberToken)
		}
		value, err := ParseInt(matched.Text(cursor))
		if err != nil {
			return nil, err
		}
		step.Expect = &value
		matched = cursor.MatchAfterOptional(whitespaceToken, timesToken)
	}
	if matched.Code == timesCode {
		matched = cursor.MatchAfterOptional(whitespaceToken, numberToken)
		if matched.Code != numberCode {
			return nil, cursor.NewError(numberToken)
		}
		value, err := ParseInt(matched.Text(cursor))
		if err != nil {
			return nil, err
		}
		step.Repeat = int(value)
	}

	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return nil, fmt.Errorf("unexpected %q at %d in %q", text[cursor.Pos:], cursor.Pos, text)
	}
	return step, step.Validate()
}

// ParseInt parses a signed decimal or hex literal. Unsigned hex literals up
// to 64 bits are accepted and reinterpreted as two's complement.
func ParseInt(text string) (int64, error) {
	value, err := strconv.ParseInt(text, 0, 64)
	if err == nil {
		return value, nil
	}
	unsigned, uErr := strconv.ParseUint(text, 0, 64)
	if uErr != nil {
		return 0, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return int64(unsigned), nil
}
