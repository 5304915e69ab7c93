/*
Package ecsprojectionserver exposes projections to out-of-process
subscribers (spec §6's "projection subscription server, a thin
read-loop over Queries"): a Hub fans out one projection's published
results to every connected subscriber, and Server streams them over
HTTP as newline-delimited JSON on a long-lived chunked response.

Wiring a projection in is one line: pass
ecsprojectionserver.Publisher[A, T](srv, name) as a Projection's
OnChangeFunc, alongside (or instead of) whatever in-process OnChange
logic the host already has.
*/
package ecsprojectionserver
