// Package bq is the public façade over BeanQueue's dispatch, worker, and
// registry services: construct an App and register processors against it;
// cmd/bq's process and submit subcommands build their own App the same way.
package bq
