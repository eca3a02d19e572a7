package merkle

import "crypto/sha256"

// buildLevels returns every level of the balanced binary tree built
// over leaves, leaves first, root last. If a level has an odd number
// of nodes, its last node is duplicated before hashing pairs (§4.5).
func buildLevels(leaves [][]byte) [][][]byte {
	if len(leaves) == 0 {
		return [][][]byte{{emptyRoot()}}
	}

	levels := [][][]byte{leaves}
	current := leaves
	for len(current) > 1 {
		current = nextLevel(current)
		levels = append(levels, current)
	}
	return levels
}

func nextLevel(level [][]byte) [][]byte {
	padded := level
	if len(padded)%2 == 1 {
		padded = append(append([][]byte{}, padded...), padded[len(padded)-1])
	}

	next := make([][]byte, 0, len(padded)/2)
	for i := 0; i < len(padded); i += 2 {
		next = append(next, hashPair(padded[i], padded[i+1]))
	}
	return next
}

func hashPair(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

func emptyRoot() []byte {
	sum := sha256.Sum256(nil)
	return sum[:]
}

// ProofStep is one sibling hash encountered walking from a leaf to
// the root, alongside whether the sibling was to the left or right.
type ProofStep struct {
	Sibling []byte
	IsLeft  bool
}

// buildProof returns the ordered sibling hashes from leaf index i to
// the root.
func buildProof(levels [][][]byte, index int) []ProofStep {
	var proof []ProofStep
	idx := index
	for level := 0; level < len(levels)-1; level++ {
		nodes := levels[level]
		padded := nodes
		if len(padded)%2 == 1 {
			padded = append(append([][]byte{}, padded...), padded[len(padded)-1])
		}

		siblingIdx := idx ^ 1
		isLeftSibling := siblingIdx < idx
		proof = append(proof, ProofStep{Sibling: padded[siblingIdx], IsLeft: isLeftSibling})
		idx /= 2
	}
	return proof
}

// verifyProof recomputes the root from leafHash and proof, returning
// whether it equals claimedRoot.
func verifyProof(leafHash []byte, proof []ProofStep, claimedRoot []byte) bool {
	current := leafHash
	for _, step := range proof {
		if step.IsLeft {
			current = hashPair(step.Sibling, current)
		} else {
			current = hashPair(current, step.Sibling)
		}
	}
	return bytesEqual(current, claimedRoot)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
