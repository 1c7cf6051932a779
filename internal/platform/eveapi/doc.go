// Package eveapi implements the key verification client against the EVE
// Online API. It performs the APIKeyInfo call through a pluggable response
// cache and translates provider faults into the local error kinds the task
// pipeline understands (invalid key vs. unreachable provider).
package eveapi
