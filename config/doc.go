// Package config loads engine configuration from QUERYOPS_* environment
// variables and turns it into client options and an observe.Config.
//
// Programs that wire everything by hand do not need this package; it exists
// for deployments that configure the engine the same way across server and
// interactive builds.
package config
