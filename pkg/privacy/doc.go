// Package privacy implements L4's (ε,δ)-differential-privacy
// accountant (§4.6): a persisted budget consulted before every DP
// query, and a Gaussian noise mechanism for bounded-sensitivity
// queries. Admission is checked before a query runs; a denied spend
// never partially executes and never mutates the persisted budget.
package privacy
