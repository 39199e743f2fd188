// Package fetch downloads registry documents and package archives over
// http(s). Requests go through a DNS-caching transport and a per-host
// circuit breaker; archive downloads are written to a temporary file and
// renamed into place so a partial download never carries the final name.
package fetch
