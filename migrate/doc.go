// Package migrate adopts the library against an existing table that
// already has a populated path column: computing left/right/level from
// path via pathcodec and writing them back, then installing four
// indexes (unique on path; one each on left, right and level). Migrator.Run performs the former end-to-end and reports the
// DDL the caller still needs to apply for the latter - the migrator never
// issues CREATE INDEX itself, leaving DDL execution to the caller's own
// migration framework.
package migrate
