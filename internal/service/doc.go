// Package service contains the application services that orchestrate
// domain logic, persistence, and background task submission. It is the
// boundary the inbound surfaces (HTTP, bots) talk to.
package service
