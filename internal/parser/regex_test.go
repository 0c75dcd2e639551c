package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/todoseq/internal/keywords"
	"github.com/starford/todoseq/internal/languages"
)

func TestBuildRegex_Groups(t *testing.T) {
	pair, err := BuildRegex(keywords.Default())
	require.NoError(t, err)

	m := pair.Capture.FindStringSubmatch("  - [ ] TODO write tests")
	require.NotNil(t, m)
	assert.Equal(t, []string{"  ", "- [ ] ", "TODO", "write tests"}, m[1:])

	assert.True(t, pair.Test.MatchString("> [!tip] DOING callout"))
	assert.False(t, pair.Test.MatchString("TODO"))
	assert.False(t, pair.Test.MatchString("xTODO foo"))
}

func TestBuildRegex_AlternationOrder(t *testing.T) {
	// "1." is a numbered marker before it could be anything else.
	pair, err := BuildRegex(keywords.Default())
	require.NoError(t, err)
	m := pair.Capture.FindStringSubmatch("1. TODO x")
	require.NotNil(t, m)
	assert.Equal(t, "1. ", m[2])

	// A keyword that looks like a lettered marker is taken as the keyword.
	ks, err := keywords.New([]string{"A.", "TODO"}, nil)
	require.NoError(t, err)
	pair, err = BuildRegex(ks)
	require.NoError(t, err)
	m = pair.Capture.FindStringSubmatch("A. sample text")
	require.NotNil(t, m)
	assert.Equal(t, "", m[2])
	assert.Equal(t, "A.", m[3])
}

func TestBuildFootnoteRegex(t *testing.T) {
	pair, err := BuildFootnoteRegex(keywords.Default())
	require.NoError(t, err)
	m := pair.Capture.FindStringSubmatch("[^42]: LATER check this")
	require.NotNil(t, m)
	assert.Equal(t, []string{"[^42]: ", "LATER", "check this"}, m[1:])
	assert.False(t, pair.Test.MatchString("[^a]: TODO x"))
}

func TestBuildCodeRegex(t *testing.T) {
	ks := keywords.Default()
	python, ok := languages.Default().Resolve("py")
	require.True(t, ok)

	pair, err := BuildCodeRegex(ks, python)
	require.NoError(t, err)
	m := pair.Capture.FindStringSubmatch(`    x = 1  # TODO tidy up`)
	require.NotNil(t, m)
	assert.Equal(t, "    x = 1  # ", m[1])
	assert.Equal(t, "TODO", m[3])
	assert.Equal(t, "tidy up", m[4])

	m = pair.Capture.FindStringSubmatch(`""" DOING docstring """`)
	require.NotNil(t, m)
	assert.Equal(t, "docstring", m[4])
	assert.Equal(t, ` """`, m[5])
	assert.Equal(t, 5, pair.Capture.NumSubexp())

	sh, ok := languages.Default().Resolve("bash")
	require.True(t, ok)
	pair, err = BuildCodeRegex(ks, sh)
	require.NoError(t, err)
	// No multi-line comments: the continuation fallback accepts any prefix.
	assert.True(t, pair.Test.MatchString("# TODO shell"))
	assert.Equal(t, 4, pair.Capture.NumSubexp(), "no tail group without a multi-line end")
}

func TestKeywordRoundTrip(t *testing.T) {
	safe := []string{
		"TODO", "NEXT", "C#", "A.B", "[WIP]", "FIX-ME", "x|y", "WHY?", "a{2}",
		"(WIP)", "$$$", "^UP", "Ünïcödé", strings.Repeat("K", keywords.MaxLength),
	}
	for _, k := range safe {
		t.Run(k, func(t *testing.T) {
			require.NoError(t, keywords.Validate([]string{k}))
			ks, err := keywords.New([]string{k}, nil)
			require.NoError(t, err)
			p, err := New(ks)
			require.NoError(t, err)

			got := p.ParseLine(k+" sample text", 0, "a.md")
			require.NotNil(t, got)
			assert.Equal(t, k, got.State)
			assert.Equal(t, "sample text", got.Text)
		})
	}
}

func TestKeywordRejection(t *testing.T) {
	unsafe := []string{
		"", "   ", strings.Repeat("K", keywords.MaxLength+1),
		"(a+)+", "A*B*", "x?y?", "a+++", "a{10}", "a{2,15}",
		`(a)\1`, `\k<name>`, "(?=x)", "(?!x)", "(?<=x)", "(?<!x)",
	}
	for _, k := range unsafe {
		err := keywords.Validate([]string{"TODO", k})
		assert.Error(t, err, "%q", k)
		_, err = keywords.New([]string{k}, nil)
		assert.Error(t, err, "%q", k)
	}
}

func TestCache_EvictsOnKeywordChange(t *testing.T) {
	c := NewCache()
	ks := keywords.Default()
	p, err := New(ks, WithCache(c))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	_, ok := p.CodePattern("go")
	require.True(t, ok)
	_, ok = p.CodePattern("golang")
	require.True(t, ok)
	assert.Equal(t, 3, c.Len(), "aliases share one entry")

	_, ok = p.CodePattern("nope")
	assert.False(t, ok)

	ks2, err := ks.With("NEXT", false)
	require.NoError(t, err)
	p2, err := New(ks2, WithCache(c))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len(), "older keyword patterns are dropped")

	// The superseded parser keeps working without repopulating the cache.
	pair, ok := p.CodePattern("python")
	require.True(t, ok)
	assert.True(t, pair.Test.MatchString("# TODO x"))
	assert.Equal(t, 2, c.Len())

	assert.NotNil(t, p2.ParseLine("NEXT step", 0, "a.md"))
	assert.Nil(t, p.ParseLine("NEXT step", 0, "a.md"))
}

func TestCache_SharedAcrossParsers(t *testing.T) {
	c := NewCache()
	ks := keywords.Default()
	p1, err := New(ks, WithCache(c))
	require.NoError(t, err)
	p2, err := New(ks, WithCache(c))
	require.NoError(t, err)
	assert.Same(t, p1.Pattern().Test, p2.Pattern().Test)
}
