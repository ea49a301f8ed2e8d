// Package extractors provides implementations of the TextExtractor interface
// for the supported document formats. Each extractor turns the bytes of one
// format into plain UTF-8 text.
//
// Extractors are registered with the ExtractorRegistry at startup.
package extractors
