package mcpserver

// MarkupFormatContract describes the post file format that LLM consumers
// should follow when drafting posts.
const MarkupFormatContract = `# Blogula Post Format Contract

Every post is a plain text file inside the posts directory. Files whose
names do not follow the pattern below are ignored by the build (images and
other assets may live next to posts).

## File name

    YYYY.MM.DD[-N] - Title.txt

- The date must be a real calendar date.
- The optional -N suffix orders several posts published on the same day.
- The title is inline text (see below); runs of whitespace collapse to one space.

## Header lines

The body may start with either or both of:

    Series: Go, Tooling
    Tags: parsing, compilers

Entries are comma separated inline text. Every series must be registered in
the site configuration; an unknown series fails the build. Tags are free-form.

## Body

Blocks are separated by blank lines.

- Textual paragraph: plain inline text. The first one found becomes the
  post description, so every post needs at least one.
- List: an optional header line, then items starting with *:

      Things to check
      * the lexer
      * the parser

- Formula:   optional header, then ` + "`% formula {x^2 + y^2}`" + `
- Code:      optional header, then ` + "`% code {go} {fmt.Println(1)}`" + `
- Image:     optional header, then ` + "`% image {pics/cat.png}`" + `
  Local paths are relative to the post file; http(s) URLs pass through.
  Any other scheme is rejected.

## Sections

    = Section =
    == Subsection ==

The closing marker must repeat the opening one exactly. A subsection is
exactly one level deeper than its parent.

## Inline text

Words are runs of characters other than ` + "`{ } \\ = * %`" + ` and whitespace.
Functions start with a backslash:

| Function | Meaning |
|---|---|
| ` + "`\\slash`" + ` | a literal backslash |
| ` + "`\\brace-beg`" + ` / ` + "`\\brace-end`" + ` | literal braces |
| ` + "`\\f{x^2}`" + ` | inline formula |
| ` + "`\\def{term}`" + ` | emphasised definition |
| ` + "`\\ref{text}{https://...}`" + ` | link; the URL is optional |

Braces inside arguments must balance.

## Example

` + "```" + `
Series: Go
Tags: intro
Hello there. This is the \def{description}.

= Details =
Some code
% code {go} {fmt.Println("hi")}
` + "```" + `

Use the validate_post tool to check a draft before saving it.
`
