package backend

import (
	"fmt"
	"strings"
)

// parseSexpr reads one Scheme expression into a nested structure: a string
// for an atom, a []any for a list. Festival prints its SylStructure
// relation trees as Scheme expressions; this reader is all the festival
// engine needs to walk them.
func parseSexpr(program string) (any, error) {
	tokens := tokenizeSexpr(program)
	expr, rest, err := readFromTokens(tokens)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("trailing tokens after expression: %v", rest)
	}
	return expr, nil
}

func tokenizeSexpr(chars string) []string {
	chars = strings.ReplaceAll(chars, "(", " ( ")
	chars = strings.ReplaceAll(chars, ")", " ) ")
	return strings.Fields(chars)
}

func readFromTokens(tokens []string) (any, []string, error) {
	if len(tokens) == 0 {
		return nil, nil, fmt.Errorf("unexpected end of expression")
	}

	token := tokens[0]
	tokens = tokens[1:]

	switch token {
	case "(":
		expr := []any{}
		for {
			if len(tokens) == 0 {
				return nil, nil, fmt.Errorf("unbalanced parenthesis")
			}
			if tokens[0] == ")" {
				return expr, tokens[1:], nil
			}
			sub, rest, err := readFromTokens(tokens)
			if err != nil {
				return nil, nil, err
			}
			expr = append(expr, sub)
			tokens = rest
		}
	case ")":
		return nil, nil, fmt.Errorf("unexpected closing parenthesis")
	default:
		return token, tokens, nil
	}
}
