// Package extractors turns uploaded files into plain text.
//
// Each extractor handles a set of file extensions and is registered with a
// Registry at startup. The registry dispatches on the extension of the
// uploaded file name and reports domain.ErrUnsupportedFileType for anything
// it does not know.
package extractors
