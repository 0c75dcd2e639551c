package parser

import (
	"log/slog"
	"regexp"
	"strings"
)

// BlockKind is the multi-line construct the tracker is currently inside.
type BlockKind int

const (
	BlockNone BlockKind = iota
	BlockCode
	BlockMath
	BlockComment
)

func (k BlockKind) String() string {
	switch k {
	case BlockCode:
		return "code"
	case BlockMath:
		return "math"
	case BlockComment:
		return "comment"
	default:
		return "none"
	}
}

var (
	fenceRe         = regexp.MustCompile("^[ \\t]*(?:>[ \\t]*)*(```|~~~)[ \\t]*([^\\s`~{]*)")
	mathDelimRe     = regexp.MustCompile(`^[ \t]*(?:>[ \t]*)*\$\$`)
	mathInlineRe    = regexp.MustCompile(`^[ \t]*(?:>[ \t]*)*\$\$.*\$\$[ \t]*$`)
	commentDelimRe  = regexp.MustCompile(`^[ \t]*(?:>[ \t]*)*%%`)
	commentCloseRe  = regexp.MustCompile(`%%[ \t]*$`)
	commentInlineRe = regexp.MustCompile(`^([ \t]*%%)(.*)%%[ \t]*$`)
	footnoteDefRe   = regexp.MustCompile(`^\[\^\d+\]:`)
	quoteRe         = regexp.MustCompile(`^[ \t]*((?:>[ \t]*)+)`)
)

// blockState is the per-file tracker. It lives for one ParseFile call.
type blockState struct {
	kind  BlockKind
	fence string
	lang  string
	code  *family
}

// action says what to do with one line: skip it, or match family against
// segment, which starts offset bytes into the line.
type action struct {
	skip    bool
	family  *family
	segment string
	offset  int
	inline  bool
}

var skipLine = action{skip: true}

// quoteDepth counts leading '>' characters; spaces between them are allowed.
func quoteDepth(line string) int {
	m := quoteRe.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return strings.Count(m[1], ">")
}

// step advances the tracker over line and selects the pattern family for it.
func (p *Parser) step(st *blockState, line string) action {
	switch st.kind {
	case BlockCode:
		// A closing fence repeats the opening marker and carries no info string.
		if m := fenceRe.FindStringSubmatch(line); m != nil && m[1] == st.fence && m[2] == "" {
			st.kind, st.fence, st.lang, st.code = BlockNone, "", "", nil
			return skipLine
		}
		if !p.settings.IncludeCodeBlocks {
			return skipLine
		}
		if st.code != nil {
			return action{family: st.code, segment: line}
		}
		return action{family: p.standard, segment: line}

	case BlockMath:
		if mathDelimRe.MatchString(line) {
			st.kind = BlockNone
		}
		return skipLine

	case BlockComment:
		trimmed := strings.TrimSpace(line)
		if commentDelimRe.MatchString(line) || commentCloseRe.MatchString(trimmed) {
			st.kind = BlockNone
			return skipLine
		}
		if !p.settings.IncludeCommentBlocks {
			return skipLine
		}
		return p.lineAction(line)
	}

	if m := fenceRe.FindStringSubmatch(line); m != nil {
		st.kind, st.fence, st.lang = BlockCode, m[1], m[2]
		st.code = p.enterCode(st.lang)
		return skipLine
	}
	if mathDelimRe.MatchString(line) {
		if !mathInlineRe.MatchString(line) {
			st.kind = BlockMath
		}
		return skipLine
	}
	if act, ok := p.inlineComment(line); ok {
		return act
	}
	if commentDelimRe.MatchString(line) {
		st.kind = BlockComment
		return skipLine
	}
	return p.lineAction(line)
}

// enterCode returns the code-comment family for a fenced block's language,
// or nil when plain keyword matching applies.
func (p *Parser) enterCode(lang string) *family {
	if !p.settings.IncludeCodeBlocks || !p.settings.LanguageCommentSupport || lang == "" {
		return nil
	}
	f, err := p.codeFamily(lang)
	if err != nil {
		p.logger.Warn("parser: code pattern unavailable",
			slog.String("language", lang),
			slog.String("error", err.Error()))
		return nil
	}
	return f
}

// codeFamily resolves lang and loads its pattern. It returns nil, nil for an
// unknown language.
func (p *Parser) codeFamily(lang string) (*family, error) {
	if p.languages == nil {
		return nil, nil
	}
	l, ok := p.languages.Resolve(lang)
	if !ok {
		return nil, nil
	}
	return p.cache.load(cacheKey{
		kind:      familyCode,
		keywords:  p.keywords.Version(),
		languages: p.languages.Version(),
		lang:      l.ID,
	}, func() (*family, error) {
		return buildCode(p.keywords, l)
	})
}

// inlineComment handles a whole-line "%% ... %%" comment. ok is false when
// line is not one.
func (p *Parser) inlineComment(line string) (action, bool) {
	m := commentInlineRe.FindStringSubmatchIndex(line)
	if m == nil {
		return action{}, false
	}
	if !p.settings.IncludeCommentBlocks {
		return skipLine, true
	}
	return action{
		family:  p.standard,
		segment: line[m[4]:m[5]],
		offset:  m[3],
		inline:  true,
	}, true
}

// lineAction picks the family for a line outside any fenced or math block.
// ParseLine goes through here too, so both entry points agree per line.
func (p *Parser) lineAction(line string) action {
	if footnoteDefRe.MatchString(line) {
		return action{family: p.footnote, segment: line}
	}
	if quoteDepth(line) > 0 && !p.settings.IncludeCalloutBlocks {
		return skipLine
	}
	return action{family: p.standard, segment: line}
}
