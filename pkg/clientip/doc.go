// Package clientip resolves the address of the calling client.
//
// By default only RemoteAddr is used. Forwarding headers are read when listed
// in Config.TrustedHeaders, and only the entries appended by trusted proxies
// are believed: X-Forwarded-For is walked from the right and the first
// address outside Config.TrustedProxies is the client. Resolved addresses
// are normalized with net/netip.
package clientip
