package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// agent consumers should follow when creating or updating notes.
const NoteFormatContract = `# Grimoire Note Format Contract

Every Markdown note stored in Grimoire SHOULD follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # RECOMMENDED – used in search and related-note listings
tags:                               # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
Use ![[target]] to embed another note's content.
` + "```" + `

## Rules

1. **Frontmatter fences** (` + "```" + `---` + "```" + `) must be the first thing in the file
   when frontmatter is present (no leading blank lines).
2. **Title** comes from the frontmatter ` + "`" + `title` + "`" + ` field, falling back to
   the first H1 heading, falling back to the filename.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
   Inline ` + "`" + `#tags` + "`" + ` in the body count as well.
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. The target is the
   filename stem (no ` + "`" + `.md` + "`" + ` extension, path separators OK: ` + "`" + `[[folder/note]]` + "`" + `).
   Short-form targets resolve against the whole vault; ambiguity is settled
   by the shortest path.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes. No leading slash,
   no ` + "`" + `..` + "`" + ` segments.
6. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
  - project-x
---

# Weekly standup 2025-01-20

Attendees: Alice, Bob.

## Action items

- [[alice]] to review the [[design-doc]]
- Bob to update [[project-x/roadmap|the roadmap]]

![[decisions/2025-01-20]]
` + "```" + `
`
