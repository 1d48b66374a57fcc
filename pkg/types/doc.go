// Package types defines the entity types, the Session and Store interfaces,
// and the standard errors shared by the geotask client, its local store, and
// the CLI.
package types
