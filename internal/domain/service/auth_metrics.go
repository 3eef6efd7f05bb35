package service

// AuthMetrics records authentication outcomes.
type AuthMetrics interface {
	// ObserveGuard records one guard evaluation for the given adapter mode.
	ObserveGuard(mode, outcome string)

	// ObserveCredentialOp records a register/login/logout attempt.
	ObserveCredentialOp(operation, outcome string)
}
