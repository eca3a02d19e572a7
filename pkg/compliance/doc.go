// Package compliance assembles the privacy-budget, encryption, and
// integrity state an operator needs to answer "is this repository
// compliant right now", without itself enforcing anything new --
// every figure it reports is read from state pkg/privacy, pkg/crypto,
// pkg/merkle, and pkg/repo already maintain.
package compliance
