package scoreboardv1

// publicProcedures can be called without a session.
var publicProcedures = map[string]bool{
	MatchServiceGetMatchProcedure: true,
	AuthServiceLoginProcedure:     true,
}

// IsPublicProcedure reports whether procedure is open to anonymous callers.
func IsPublicProcedure(procedure string) bool {
	return publicProcedures[procedure]
}
