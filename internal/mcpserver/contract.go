package mcpserver

// TaskSyntax describes the task line format recognised by the parser, for
// LLM consumers that read or write tasks in notes.
const TaskSyntax = `# todoseq Task Syntax

A task is one line that starts with a keyword, optionally after a list marker,
checkbox or quote prefix. Keywords are case-sensitive.

## Line shape

` + "```" + `text
[indent][> ...][list marker][checkbox] KEYWORD [#priority] text [#tags] [^anchor]
` + "```" + `

- **Keywords**: active (TODO, DOING, NOW, LATER, WAIT, WAITING, IN-PROGRESS) and
  completed (DONE, CANCELED, CANCELLED) by default. Call ` + "`get_keywords`" + ` for the
  configured set.
- **List markers**: ` + "`-`, `*`, `+`, `1.`, `1)`, `a.`, `(i)`" + `.
- **Checkbox**: ` + "`[ ]`" + ` open, ` + "`[x]`" + ` done. A checkbox overrides the keyword's completion.
- **Priority**: ` + "`[#A]`" + ` high, ` + "`[#B]`" + ` medium, ` + "`[#C]`" + ` low. The first token wins.
- **Tags**: ` + "`#tag`" + `, ` + "`#area/sub`" + `. Tags stay in the text.
- **Embed anchor**: a trailing ` + "`^block-id`" + ` is stripped from the text.
- **Footnotes**: ` + "`[^1]: TODO text`" + ` definitions are tasks; ` + "`[^1]`" + ` references are recorded.

## Dates

Put dates on the lines directly below the task, indented at least as deep:

` + "```" + `markdown
- TODO file taxes
  SCHEDULED: <2025-03-01 Sat>
  DEADLINE: <2025-04-15 Tue 17:00>
` + "```" + `

Only the first SCHEDULED and the first DEADLINE line count. A non-date line ends
the search.

## Ignored regions

- Fenced code blocks (` + "```" + ` or ~~~ fences), unless code blocks are enabled. With language
  comment support, tasks inside comments of known languages are found, e.g.
  ` + "`// TODO refactor`" + ` in a go block.
- Math blocks (` + "`$$`" + `).
- Comment blocks (` + "`%%`" + `), unless comment blocks are enabled.
- Quotes and callouts (` + "`> [!note]`" + `), when callout blocks are disabled.

## Example

` + "```" + `markdown
- [ ] TODO [#A] draft the release notes #work ^rel-notes
  DEADLINE: <2025-05-02>
> - DOING review PR #work
[^1]: LATER cite the benchmark
` + "```" + `
`
