// Package stage implements the typed units of warehouse work: provision,
// bulk load, fact load, dimension load and the quality check gate.
//
// Each kind is built from its own configuration struct, validated when the
// stage is constructed. Running a stage renders all of its statements first,
// so a missing parameter fails before the warehouse sees anything, then
// executes them in order. A failed statement stops the stage; earlier
// statements stay committed.
//
// A quality check passes a table when the first value of its check query is
// a non-zero count. A missing table, an empty result, a NULL or non-numeric
// value and a zero count each fail with their own reason, and checking stops
// at the first failing table.
package stage
