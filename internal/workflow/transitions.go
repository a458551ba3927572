// internal/workflow/transitions.go
package workflow

// allowedTransitions is the fixed adjacency table of legal status moves.
// Statuses with an empty entry are terminal. The table is never mutated at
// runtime.
var allowedTransitions = map[int][]int{
	CodeInitial:     {CodeEnAttente, CodeValideeClub, CodeRejetee},
	CodeEnAttente:   {CodeValideeClub, CodeRejetee, CodeInitial},
	CodeValideeClub: {CodeImprimee, CodeEnAttente},
	CodeImprimee:    {},
	CodeRejetee:     {CodeInitial},
}

// CanTransition reports whether moving from one status code to another is
// legal. A self-transition (from == to) is always legal, irrespective of the
// table: re-asserting the current state is a no-op confirmation.
func CanTransition(from, to int) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedNext returns the statuses reachable from the given status, excluding
// the implicit self-transition. The slice is empty for terminal statuses.
func AllowedNext(from Status) []Status {
	codes := allowedTransitions[from.Code]
	next := make([]Status, 0, len(codes))
	for _, code := range codes {
		if s, ok := statusRegistry[code]; ok {
			next = append(next, s)
		}
	}
	return next
}
