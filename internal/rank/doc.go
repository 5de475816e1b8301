// Package rank defines the records, collaborator interfaces, and error taxonomy
// shared by the SERP parser, the rank calculators, and the batch tracker.
//
// Sites, keywords and tracked URLs are owned by an external CRUD layer and are
// read-only here. Ranking and URLRanking rows are append-only: every check
// writes exactly one new row and never updates an old one.
package rank
