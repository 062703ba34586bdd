// ═══════════════════════════════════════════════════════════════════════════════
// PACKAGE NEO: A STREAMING QUERY EXECUTION CORE
// ═══════════════════════════════════════════════════════════════════════════════
// neo is the part of a full-text search engine that turns an already-parsed
// boolean/positional query tree into ranked, grouped, top-K results.
//
// It does NOT parse query strings, tokenize text, or read index files off disk.
// It receives a query tree (querytree.go) and a handful of "Qword" posting-list
// cursors (qword.go) and streams matches through five layers:
//
//	L1  Qword reader     per-term posting cursor: docs + hit positions
//	L2  operator tree     AND/OR/ANDNOT/MAYBE, phrase, proximity, quorum, ...
//	L3  ranker             folds hits into factors, computes an integer weight
//	L4  sorter             bounded top-K collector, optional GROUP BY / HAVING
//	L5  coordinator        builds L2 from the tree, drives the drain loop
//
// DATA FLOW (bottom-up for matches, top-down for control):
//
//	Qword ──▶ term leaf ──▶ operator tree ──▶ ranker ──▶ sorter ──▶ results
//	                  ◀── reset / hint_docid / cancellation ──
//
// Every node in the operator tree streams bounded chunks of documents and hits
// (see ExtDoc/ExtHit in docid.go) rather than materializing whole result sets;
// this bounds memory regardless of corpus size, the same property the teacher
// codebase gets from roaring-bitmap compression and skip-list paging.
//
// No concrete Qword implementation ships in this package; callers supply
// their own posting-list cursors through the Qword interface (qword.go).
// ═══════════════════════════════════════════════════════════════════════════════
package neo
