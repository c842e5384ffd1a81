// Package memstore is an in-memory collection backend that speaks the wire
// contract the console client expects: paginated lists wrapped in an
// envelope, fetch by id, create, edit (POST <collection>/edit or PUT
// <collection>), delete, and a nameList endpoint that feeds dynamic option
// fields. It backs the demo binary and end-to-end tests.
//
// Every collection stores flat JSON objects keyed by "id". Required keys are
// checked on write and reported as field errors with status 422.
package memstore
