// Package testinfra starts throwaway PostgreSQL and Redis containers for
// integration tests. Everything here is behind the integration build tag:
//
//	go test -tags integration ./...
package testinfra
