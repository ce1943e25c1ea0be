// Package padserver fetches pads from HedgeDoc/CodiMD compatible servers.
//
// A pad is read with two requests: GET /{name}/info for the metadata JSON
// and GET /{name}/download for the raw markdown. Requests can be routed
// through a SOCKS5 proxy, are rate limited per server and carry per-site
// cookies and headers so private pads can be watched.
//
// The Client is safe for concurrent use.
package padserver
