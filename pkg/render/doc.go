// Package render wraps a pongo2 template set behind the TemplateRenderer
// seam used by formset row rendering and widget result templates. Inline
// templates are cached by content; named templates load from a directory or
// an fs.FS.
package render
