/*
Package ecsprojectionclient is the thin Go client for
pkg/ecsprojectionserver: Client.Stream connects to a running server's
GET /projections/{name}/stream endpoint and decodes its
newline-delimited JSON events onto a channel, the same
"wrap the transport in a convenient typed client" shape as the
teacher's pkg/client, with the transport itself net/http instead of
gRPC+mTLS.
*/
package ecsprojectionclient
