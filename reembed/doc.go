// Package reembed drives resilient re-embedding of the listing collection.
//
// The pipeline sweeps re-embedding candidates in passes: each pass opens a
// consistent snapshot, embeds candidates in small batches, classifies every
// outcome as success, failed, or failed_permanently, and bulk-writes the
// outcomes back. Passes repeat until the collection converges or the
// remainder is proven permanent. Failure of one listing never blocks the
// rest; transient failures retry with exponential backoff, and a crash can
// resume from the stored statuses plus an advisory progress file.
package reembed
