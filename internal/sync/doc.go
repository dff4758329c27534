// Package sync implements the pass coordinator that keeps the local
// content store consistent with the remote workspace. It decides what to
// fetch, which pages actually changed, when to stop a long pass safely,
// how to recover from transient source failures, and how to reconcile
// pages that vanished upstream.
//
// # Anatomy of a pass
//
// A pass runs on a single goroutine and is serialized against other
// passes by a store-backed lease:
//
//  1. A time budget is computed from the pass mode, the memory budget,
//     and whether the process is running unattended.
//  2. The change detector fetches the page listing, pre-filtered
//     server-side by the sync watermark on incremental passes. Fetch
//     failures are classified; retryable categories get one retry after
//     a fixed backoff, then one unfiltered fallback fetch, and finally
//     degrade to an empty listing rather than aborting the pass.
//  3. When deletion checking is on, the reconciler compares the full
//     (never the filtered) listing against the link index and removes
//     local documents whose pages vanished upstream. An empty id set is
//     never treated as "everything was deleted".
//  4. Pages are processed in listing order, bulk or sequentially. The
//     time budget is polled at iteration boundaries only; when it trips,
//     the in-flight page finishes and the rest are deferred to the next
//     pass.
//  5. The watermark advances only when the pass ran to completion, so a
//     truncated pass re-offers the deferred pages next time and the
//     per-page skip check keeps the rework cheap.
//
// # Empty listings
//
// An empty listing is ambiguous: it can mean "nothing changed" or "the
// fetch silently failed". The watermark decides: with no watermark on
// record the pass has never completed, so an empty first listing is an
// error; with a watermark present, an empty listing is a legitimate
// zero-change pass.
//
// # Outcomes
//
// Each processed page yields exactly one outcome: imported, updated,
// skipped, or failed. Failures are isolated; they are tallied in the
// result and never abort the pass.
package sync
