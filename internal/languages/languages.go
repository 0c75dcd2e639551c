// Package languages maps fenced code block language tokens to the comment
// syntax used to find tasks inside code.
package languages

import (
	"strings"
	"sync/atomic"
)

// Language holds regex fragments for one language's comment syntax. Empty
// fragments mean the language has no such construct.
type Language struct {
	ID             string
	Aliases        []string
	SingleLine     string
	MultiLineStart string
	MultiLineMid   string
	MultiLineEnd   string
}

// Resolver looks up a language by name or alias.
type Resolver interface {
	Resolve(id string) (Language, bool)
	Version() uint64
}

var versionSeq atomic.Uint64

// Registry is an immutable name/alias index of languages.
type Registry struct {
	byName  map[string]Language
	version uint64
}

var _ Resolver = (*Registry)(nil)

// NewRegistry indexes langs by ID and alias. Later entries override earlier
// ones on name clashes.
func NewRegistry(langs ...Language) *Registry {
	r := &Registry{byName: make(map[string]Language, len(langs)*2)}
	for _, l := range langs {
		r.add(l)
	}
	r.version = versionSeq.Add(1)
	return r
}

func (r *Registry) add(l Language) {
	r.byName[strings.ToLower(l.ID)] = l
	for _, a := range l.Aliases {
		r.byName[strings.ToLower(a)] = l
	}
}

// Resolve finds the language for a fence token. Lookup is case-insensitive.
func (r *Registry) Resolve(id string) (Language, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return Language{}, false
	}
	l, ok := r.byName[id]
	return l, ok
}

// Version changes whenever a registry is derived with With.
func (r *Registry) Version() uint64 {
	return r.version
}

// With returns a new registry that also knows l.
func (r *Registry) With(l Language) *Registry {
	out := &Registry{byName: make(map[string]Language, len(r.byName)+1+len(l.Aliases))}
	for k, v := range r.byName {
		out.byName[k] = v
	}
	out.add(l)
	out.version = versionSeq.Add(1)
	return out
}

// Common comment fragments. Single-line markers may trail code when
// preceded by whitespace.
const (
	slashes     = `(?:.*?[ \t])?//`
	cStart      = `\s*/\*+`
	cMid        = `\s*\*`
	cEnd        = `\*+/`
	hash        = `(?:.*?[ \t])?#`
	dashes      = `(?:.*?[ \t])?--`
	semicolons  = `\s*;+`
	percent     = `\s*%`
	htmlStart   = `\s*<!--`
	htmlEnd     = `-->`
	doubleQuote = `\s*"`
)

func cLike(id string, aliases ...string) Language {
	return Language{ID: id, Aliases: aliases, SingleLine: slashes, MultiLineStart: cStart, MultiLineMid: cMid, MultiLineEnd: cEnd}
}

// Builtin returns the default language table.
func Builtin() []Language {
	return []Language{
		cLike("go", "golang"),
		cLike("c", "h"),
		cLike("cpp", "c++", "cc", "cxx", "hpp"),
		cLike("csharp", "c#", "cs"),
		cLike("java"),
		cLike("javascript", "js", "jsx", "mjs", "cjs"),
		cLike("typescript", "ts", "tsx"),
		cLike("rust", "rs"),
		cLike("swift"),
		cLike("kotlin", "kt", "kts"),
		cLike("scala", "sc"),
		cLike("dart"),
		cLike("groovy", "gradle"),
		cLike("php"),
		{ID: "css", MultiLineStart: cStart, MultiLineMid: cMid, MultiLineEnd: cEnd},
		cLike("scss", "sass", "less"),
		{ID: "python", Aliases: []string{"py", "python3"}, SingleLine: hash, MultiLineStart: `\s*(?:"""|''')`, MultiLineEnd: `(?:"""|''')`},
		{ID: "ruby", Aliases: []string{"rb"}, SingleLine: hash, MultiLineStart: `\s*=begin`, MultiLineEnd: `=end`},
		{ID: "shell", Aliases: []string{"sh", "bash", "zsh", "fish", "console"}, SingleLine: hash},
		{ID: "powershell", Aliases: []string{"ps1", "pwsh"}, SingleLine: hash, MultiLineStart: `\s*<#`, MultiLineEnd: `#>`},
		{ID: "r", SingleLine: hash},
		{ID: "perl", Aliases: []string{"pl"}, SingleLine: hash},
		{ID: "yaml", Aliases: []string{"yml"}, SingleLine: hash},
		{ID: "toml", SingleLine: hash},
		{ID: "ini", Aliases: []string{"conf", "cfg"}, SingleLine: `\s*[;#]`},
		{ID: "dockerfile", Aliases: []string{"docker"}, SingleLine: hash},
		{ID: "makefile", Aliases: []string{"make", "mk"}, SingleLine: hash},
		{ID: "elixir", Aliases: []string{"ex", "exs"}, SingleLine: hash},
		{ID: "sql", Aliases: []string{"psql", "mysql", "sqlite"}, SingleLine: dashes, MultiLineStart: cStart, MultiLineMid: cMid, MultiLineEnd: cEnd},
		{ID: "lua", SingleLine: dashes, MultiLineStart: `\s*--\[\[`, MultiLineEnd: `\]\]`},
		{ID: "haskell", Aliases: []string{"hs"}, SingleLine: dashes, MultiLineStart: `\s*\{-`, MultiLineEnd: `-\}`},
		{ID: "clojure", Aliases: []string{"clj", "cljs", "edn"}, SingleLine: semicolons},
		{ID: "lisp", Aliases: []string{"elisp", "emacs-lisp", "scheme", "racket"}, SingleLine: semicolons, MultiLineStart: `\s*#\|`, MultiLineEnd: `\|#`},
		{ID: "html", Aliases: []string{"htm", "svg", "vue", "svelte"}, MultiLineStart: htmlStart, MultiLineEnd: htmlEnd},
		{ID: "xml", Aliases: []string{"xsl", "plist"}, MultiLineStart: htmlStart, MultiLineEnd: htmlEnd},
		{ID: "markdown", Aliases: []string{"md"}, MultiLineStart: htmlStart, MultiLineEnd: htmlEnd},
		{ID: "latex", Aliases: []string{"tex"}, SingleLine: percent},
		{ID: "matlab", Aliases: []string{"octave"}, SingleLine: percent, MultiLineStart: `\s*%\{`, MultiLineEnd: `%\}`},
		{ID: "erlang", Aliases: []string{"erl"}, SingleLine: percent},
		{ID: "vim", Aliases: []string{"vimscript", "viml"}, SingleLine: doubleQuote},
	}
}

// Default returns a registry of the builtin languages.
func Default() *Registry {
	return NewRegistry(Builtin()...)
}
