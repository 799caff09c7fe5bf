package parser

import (
	"github.com/starford/blogula/internal/apperr"
	"github.com/starford/blogula/internal/models"
)

// ParseText greedily reads atoms starting at pos. It returns a nil Text and
// the unchanged position when no atom starts there; that is not an error.
// A slash that is not followed by a function name is.
func ParseText(tokens []Token, pos int) (int, models.Text, error) {
	var text models.Text
	next := pos

	for next < len(tokens) {
		tok := tokens[next]
		switch tok.Kind {
		case KindWord:
			text = append(text, models.Word{Text: tok.Content})
			next++
			continue
		case KindSlash:
			n, fn, err := parseFunction(tokens, next)
			if err != nil {
				return pos, nil, err
			}
			text = append(text, fn)
			next = n
			continue
		}
		break
	}

	if len(text) == 0 {
		return pos, nil, nil
	}
	return next, text, nil
}

func parseFunction(tokens []Token, pos int) (int, models.Function, error) {
	next := pos + 1
	if next >= len(tokens) || tokens[next].Kind != KindWord {
		return pos, models.Function{}, errAt(apperr.ErrMissingFunctionName, tokens[pos])
	}
	fn := models.Function{Name: tokens[next].Content}
	next++

	for next < len(tokens) && tokens[next].Kind == KindBlob {
		fn.Args = append(fn.Args, tokens[next].Content)
		next++
	}
	return next, fn, nil
}
