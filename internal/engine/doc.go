// Package engine drives rules through the code-search provider: it builds the
// query, pages through the results, runs each hit through the dedup,
// exclusion and classification stages and hands one batch per page to the
// reporter. This package is internal; external consumers should use the
// stable facade in pkg/core.
package engine
