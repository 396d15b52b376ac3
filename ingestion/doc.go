// Package ingestion turns OCR layout responses into stored documents.
//
// Each input goes through the same steps:
//   - decode the layout JSON into a block tree
//   - linearize the tree into an annotated line stream
//   - classify the stream into headings, paragraphs, bullets and tables
//   - extract metadata and store the document
//   - optionally split it into sections and embed them for search
//   - optionally write a rendition file
//
// Documents are processed concurrently on a worker pool. A failure on one
// document is logged and counted in the Report; it never stops the batch.
package ingestion
