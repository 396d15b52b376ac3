// Package rebuild re-derives every stored document from its raw layout.
//
// Documents keep the layout JSON they were ingested from, so a change to the
// linearize or reflow heuristics can be applied to the whole store without
// calling the OCR service again. When an embedder is configured the chunks
// are re-cut and re-embedded as well.
//
// Runs are processed in ID order and checkpointed after every batch, so an
// interrupted run can resume where it stopped.
package rebuild
