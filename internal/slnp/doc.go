// Package slnp implements the SLNP wire protocol spoken by regional
// interlibrary-loan servers.
//
// A request is a block of lines:
//
//	SLNPFLBestellung
//	BestellId:4711
//	SLNPBegin
//	Sigel:DE-1
//	SLNPEnd
//	SLNPEndCommand
//
// Parse builds a Tree from such a block, Validate checks it against a schema
// entry, Read extracts parameter tuples for a handler and Render turns the
// handler's Response into status-code prefixed lines:
//
//	600 SLNPFLBestellung
//	601 PFLNummer:17
//	604 SLNPBegin
//	603 Sigel:DE-1
//	605 SLNPEnd
//	250 SLNPEndOfData
package slnp
