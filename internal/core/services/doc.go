// Package services contains the core business logic, independent of
// infrastructure. Services depend on driven ports and implement driving
// ports.
package services
