// Package normalisers turns raw study material into plain-text documents.
// Each sub-package handles specific MIME types; the Registry dispatches to
// the highest-priority normaliser for a document.
package normalisers
